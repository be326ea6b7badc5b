package artifact

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Writer appends one JSON object per line to an NDJSON file, creating
// parent directories as needed. It is not safe for concurrent use from
// multiple goroutines against the same file.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
}

// NewWriter opens path for appending, creating it (and its parent
// directory) if absent.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, trailerr.New(trailerr.KindConfiguration, "artifact.NewWriter", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, trailerr.New(trailerr.KindConfiguration, "artifact.NewWriter", err)
	}
	return &Writer{f: f, buf: bufio.NewWriter(f)}, nil
}

// WriteRecord marshals v and appends it as one line.
func (w *Writer) WriteRecord(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return trailerr.New(trailerr.KindParse, "artifact.WriteRecord", err)
	}
	if _, err := w.buf.Write(b); err != nil {
		return trailerr.New(trailerr.KindConfiguration, "artifact.WriteRecord", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return trailerr.New(trailerr.KindConfiguration, "artifact.WriteRecord", err)
	}
	return nil
}

// Close flushes buffered output and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// ReadLines opens path and invokes fn with the raw bytes of each
// non-empty line. It does no JSON parsing, so parseErr is always nil;
// DecodeLines is the variant that reports malformed lines to fn.
func ReadLines(path string, fn func(line []byte, parseErr error) error) error {
	f, err := os.Open(path)
	if err != nil {
		return trailerr.New(trailerr.KindMissingInput, "artifact.ReadLines", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		if err := fn(cp, nil); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return trailerr.New(trailerr.KindParse, "artifact.ReadLines", err)
	}
	return nil
}

// DecodeLines reads path and unmarshals each line into a new T,
// calling fn(record, nil) on success or fn(zero, err) on a malformed
// line (counted by the caller, never fatal to the read).
func DecodeLines[T any](path string, fn func(rec T, parseErr error) error) error {
	return ReadLines(path, func(line []byte, _ error) error {
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			return fn(rec, trailerr.New(trailerr.KindParse, "artifact.DecodeLines", err))
		}
		return fn(rec, nil)
	})
}

// Exists reports whether path exists and is a non-empty regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() > 0
}
