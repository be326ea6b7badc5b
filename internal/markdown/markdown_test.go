package markdown

import (
	"strings"
	"testing"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

func TestToMarkdownStorageExtractsLinks(t *testing.T) {
	c := NewConverter("https://example.atlassian.net")
	html := `<p>See <a href="/wiki/spaces/DOC/pages/123">the runbook</a> for details.</p>`

	textMd, links, err := c.ToMarkdown(string(models.BodyReprStorage), html)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if !strings.Contains(textMd, "runbook") {
		t.Errorf("expected converted text to retain link label, got %q", textMd)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d (%v)", len(links), links)
	}
}

func TestToMarkdownUnknownReprIsAnError(t *testing.T) {
	c := NewConverter("")
	_, _, err := c.ToMarkdown("bogus", "text")
	if err == nil {
		t.Fatal("expected an error for unknown bodyRepr")
	}
}

func TestToMarkdownIsPureAndDeterministic(t *testing.T) {
	c := NewConverter("https://example.atlassian.net")
	html := `<h1>Title</h1><p>Alpha beta gamma.</p>`

	first, _, err := c.ToMarkdown(string(models.BodyReprStorage), html)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	second, _, err := c.ToMarkdown(string(models.BodyReprStorage), html)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if first != second {
		t.Errorf("expected identical output for identical input, got %q vs %q", first, second)
	}
}
