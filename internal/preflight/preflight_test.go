package preflight

import (
	"path/filepath"
	"testing"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/models"
)

func writeEnrichedFixture(t *testing.T, layout artifact.Layout, scores []float64) {
	t.Helper()
	w, err := artifact.NewWriter(layout.EnrichedJSONL())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i, s := range scores {
		rec := map[string]interface{}{"id": "doc", "qualityScore": s, "ord": i}
		if err := w.WriteRecord(rec); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func writeChunksFixture(t *testing.T, layout artifact.Layout, n int) {
	t.Helper()
	w, err := artifact.NewWriter(layout.ChunksNDJSON())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < n; i++ {
		ch := models.Chunk{ChunkID: "doc:0000", Ord: i, TokenCount: 100}
		if err := w.WriteRecord(ch); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func validConfig() Config {
	return Config{Provider: "dummy", Model: "dummy-v1", Dimension: 8, MinQuality: 0.3, MinEmbedDocs: 1}
}

func TestValidateMissingInputBlocks(t *testing.T) {
	layout := artifact.NewLayout(t.TempDir(), "run1")
	result, err := Validate(layout, validConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Status != models.PreflightBlocked {
		t.Fatalf("expected BLOCKED, got %s", result.Status)
	}
	if !containsReason(result.Reasons, models.ReasonMissingInput) {
		t.Errorf("expected MISSING_INPUT reason, got %v", result.Reasons)
	}
}

func TestValidateReadyWhenArtifactsPresent(t *testing.T) {
	layout := artifact.NewLayout(t.TempDir(), "run1")
	writeEnrichedFixture(t, layout, []float64{0.9, 0.8})
	writeChunksFixture(t, layout, 3)

	result, err := Validate(layout, validConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Status != models.PreflightReady {
		t.Fatalf("expected READY, got %s: %v", result.Status, result.Reasons)
	}
	if result.DocTotals.EmbeddableDocs != 2 {
		t.Errorf("expected 2 embeddable docs, got %d", result.DocTotals.EmbeddableDocs)
	}
}

func TestValidateQualityGateIsAdvisoryNeverBlocking(t *testing.T) {
	layout := artifact.NewLayout(t.TempDir(), "run1")
	// All docs below minQuality: still must not block, only advise.
	writeEnrichedFixture(t, layout, []float64{0.1, 0.1, 0.1})
	writeChunksFixture(t, layout, 1)

	cfg := validConfig()
	cfg.MinEmbedDocs = 0 // allow embeddableDocs=0 to not trip that blocker either
	result, err := Validate(layout, cfg)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Status != models.PreflightReady {
		t.Fatalf("expected READY despite low quality scores (advisory only), got %s: %v", result.Status, result.Reasons)
	}
	if !result.QualityGate.Advisory {
		t.Error("expected QualityGate.Advisory to be true")
	}
}

func TestValidateIncoherentConfigBlocks(t *testing.T) {
	layout := artifact.NewLayout(t.TempDir(), "run1")
	writeEnrichedFixture(t, layout, []float64{0.9})
	writeChunksFixture(t, layout, 1)

	cfg := validConfig()
	cfg.Dimension = 0
	result, err := Validate(layout, cfg)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !containsReason(result.Reasons, models.ReasonConfig) {
		t.Errorf("expected CONFIG_INCOHERENT reason, got %v", result.Reasons)
	}
}

func TestRunPlanWritesReports(t *testing.T) {
	workRoot := t.TempDir()
	layout := artifact.NewLayout(workRoot, "run1")
	writeEnrichedFixture(t, layout, []float64{0.9})
	writeChunksFixture(t, layout, 1)

	result, err := RunPlan(workRoot, []models.PlanEntry{{RunID: "run1"}}, validConfig(), nil)
	if err != nil {
		t.Fatalf("RunPlan: %v", err)
	}
	if len(result.Ready) != 1 {
		t.Fatalf("expected 1 ready run, got %d", len(result.Ready))
	}

	reportDir := filepath.Join(workRoot, "reports")
	if err := result.WriteReports(reportDir); err != nil {
		t.Fatalf("WriteReports: %v", err)
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
