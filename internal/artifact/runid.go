package artifact

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewRunID returns a runId in the canonical YYYY-MM-DD_HHMMSS_<4hex>
// form: opaque, globally unique, and sortable by creation time.
func NewRunID(now time.Time) string {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s_%s", now.UTC().Format("2006-01-02_150405"), hex.EncodeToString(b[:]))
}
