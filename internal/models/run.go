// Package models defines the core domain types shared across Trailblazer's
// pipeline phases: the per-run artifact lifecycle, the document/chunk/
// embedding shapes that flow through it, and the coordination row that
// governs parallel workers.
package models

import "time"

// SourceSystem identifies which corpus a Document came from.
type SourceSystem string

const (
	SourceConfluence SourceSystem = "confluence"
	SourceDITA       SourceSystem = "dita"
)

// BodyRepr identifies the original body representation a Document's
// canonical Markdown was converted from.
type BodyRepr string

const (
	BodyReprStorage BodyRepr = "storage"
	BodyReprADF     BodyRepr = "adf"
	BodyReprDITA    BodyRepr = "dita"
)

// Run is a single execution instance of the pipeline, identified by a
// globally unique runId in canonical form "YYYY-MM-DD_HHMMSS_<4hex>".
// Phase subdirectories under its artifact tree are created lazily; once a
// phase completes, nothing else writes into that phase's directory.
type Run struct {
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
}
