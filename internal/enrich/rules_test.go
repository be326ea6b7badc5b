package enrich

import (
	"testing"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

func TestCollectionFallsBackInOrder(t *testing.T) {
	if got := Collection("Existing", "SPACE", models.SourceConfluence); got != "Existing" {
		t.Errorf("expected existing collection to win, got %q", got)
	}
	if got := Collection("", "SPACE", models.SourceConfluence); got != "space" {
		t.Errorf("expected lowercased spaceKey, got %q", got)
	}
	if got := Collection("", "", models.SourceDITA); got != "dita" {
		t.Errorf("expected sourceSystem fallback, got %q", got)
	}
}

func TestQualityFlagsEmptyBody(t *testing.T) {
	flags := QualityFlags("", nil, 0)
	if len(flags) != 1 || flags[0] != models.QualityFlagEmptyBody {
		t.Fatalf("expected only empty_body flag, got %v", flags)
	}
}

func TestQualityFlagsTooShort(t *testing.T) {
	flags := QualityFlags("just a few words here", nil, 0)
	found := false
	for _, f := range flags {
		if f == models.QualityFlagTooShort {
			found = true
		}
	}
	if !found {
		t.Errorf("expected too_short flag, got %v", flags)
	}
}

func TestQualityFlagsBrokenLinks(t *testing.T) {
	body := "See [broken]() and [also broken](#) but this is long enough text to not be too short at all so we are fine."
	flags := QualityFlags(body, []string{"# Heading"}, 0)
	found := false
	for _, f := range flags {
		if f == models.QualityFlagBrokenLinks {
			found = true
		}
	}
	if !found {
		t.Errorf("expected broken_links flag, got %v", flags)
	}
}

func TestQualityScoreIsMonotoneInFlagCount(t *testing.T) {
	r := models.Readability{CharsPerWord: 5}
	none := QualityScore(nil, r)
	one := QualityScore([]string{models.QualityFlagTooShort}, r)
	two := QualityScore([]string{models.QualityFlagTooShort, models.QualityFlagNoStructure}, r)
	if !(none > one && one > two) {
		t.Errorf("expected monotone decrease: none=%v one=%v two=%v", none, one, two)
	}
}

func TestFingerprintIsPureAndOrderSensitive(t *testing.T) {
	recA := &models.EnrichedRecord{
		NormalizedRecord: models.NormalizedRecord{ID: "doc-1"},
		Collection:       "docs",
		PathTags:         []string{"api", "install"},
		QualityFlags:     []string{"too_short"},
	}
	recB := &models.EnrichedRecord{
		NormalizedRecord: models.NormalizedRecord{ID: "doc-1"},
		Collection:       "docs",
		PathTags:         []string{"install", "api"},
		QualityFlags:     []string{"too_short"},
	}

	fpA1, err := Fingerprint("doc-1", recA)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fpA2, err := Fingerprint("doc-1", recA)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fpA1.FingerprintSha256 != fpA2.FingerprintSha256 {
		t.Error("expected identical inputs to yield identical fingerprints")
	}

	fpB, err := Fingerprint("doc-1", recB)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fpA1.FingerprintSha256 == fpB.FingerprintSha256 {
		t.Error("expected differently-ordered pathTags to change the fingerprint")
	}
}
