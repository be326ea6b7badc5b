// Package canon implements the canonical-JSON hashing used for
// contentSha256, fingerprintSha256, and chunkSetHash so that all three stay
// pinned across platforms: sorted keys, stable numeric formatting, no
// floating whitespace.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Marshal produces the canonical JSON encoding of v: object keys sorted,
// no HTML escaping, compact separators. Arrays preserve their input order.
func Marshal(v interface{}) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a trailing newline; trim it so the hash
	// input is exactly the encoded value.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalize round-trips v through encoding/json to obtain a generic value
// tree (map[string]interface{}/[]interface{}/scalars), which Go's encoding/json
// already serializes with sorted map keys. This guarantees determinism
// regardless of the field order of the original struct or map.
func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// SHA256Hex returns the lowercase-hex SHA-256 digest of the canonical JSON
// encoding of v.
func SHA256Hex(v interface{}) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SHA256HexBytes returns the lowercase-hex SHA-256 digest of raw bytes,
// used for contentSha256 over the already-canonical body text.
func SHA256HexBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SortedStrings returns a sorted copy of ss, leaving the input untouched.
func SortedStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}
