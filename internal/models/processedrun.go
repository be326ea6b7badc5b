package models

import "time"

// RunStatus is the processed_runs lifecycle state, exclusively mutated via
// the claim protocol (§4.7).
type RunStatus string

const (
	StatusNormalized RunStatus = "normalized"
	StatusReset      RunStatus = "reset"
	StatusChunking   RunStatus = "chunking"
	StatusChunked    RunStatus = "chunked"
	StatusEmbedding  RunStatus = "embedding"
	StatusEmbedded   RunStatus = "embedded"
)

// PreStates returns the set of statuses a row must be in to be a
// candidate for claiming phase P.
func PreStates(phase string) []RunStatus {
	switch phase {
	case "chunk":
		return []RunStatus{StatusNormalized, StatusReset}
	case "embed":
		return []RunStatus{StatusChunked}
	default:
		return nil
	}
}

// ActiveStatus returns the P_active status for phase P.
func ActiveStatus(phase string) RunStatus {
	switch phase {
	case "chunk":
		return StatusChunking
	case "embed":
		return StatusEmbedding
	default:
		return ""
	}
}

// DoneStatus returns the P_done status for phase P.
func DoneStatus(phase string) RunStatus {
	switch phase {
	case "chunk":
		return StatusChunked
	case "embed":
		return StatusEmbedded
	default:
		return ""
	}
}

// ProcessedRun is the single coordination row per run. It is inserted at
// the end of normalize and transitioned only by claim/mark operations.
type ProcessedRun struct {
	RunID          string     `json:"runId"`
	Source         string     `json:"source"`
	NormalizedAt   time.Time  `json:"normalizedAt"`
	Status         RunStatus  `json:"status"`
	TotalDocs      int        `json:"totalDocs"`
	TotalChunks    *int       `json:"totalChunks,omitempty"`
	EmbeddedChunks *int       `json:"embeddedChunks,omitempty"`
	ClaimedBy      string     `json:"claimedBy,omitempty"`
	ClaimedAt      *time.Time `json:"claimedAt,omitempty"`

	ChunkStartedAt    *time.Time `json:"chunkStartedAt,omitempty"`
	ChunkCompletedAt  *time.Time `json:"chunkCompletedAt,omitempty"`
	EmbedStartedAt    *time.Time `json:"embedStartedAt,omitempty"`
	EmbedCompletedAt  *time.Time `json:"embedCompletedAt,omitempty"`

	CodeVersion string    `json:"codeVersion,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
