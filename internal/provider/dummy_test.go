package provider

import (
	"context"
	"testing"
)

func TestDummyEmbedIsDeterministic(t *testing.T) {
	d := NewDummy(16)
	v1, err := d.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	v2, err := d.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v1) != 16 {
		t.Fatalf("expected dim 16, got %d", len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected identical vectors for identical text, differ at %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestDummyEmbedDiffersForDifferentText(t *testing.T) {
	d := NewDummy(8)
	a, _ := d.Embed(context.Background(), "alpha")
	b, _ := d.Embed(context.Background(), "beta")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different text to produce different vectors")
	}
}

func TestDummyEmbedBatchMatchesSingleEmbed(t *testing.T) {
	d := NewDummy(4)
	texts := []string{"one", "two", "three"}
	batch, err := d.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(batch))
	}
	for i, text := range texts {
		single, _ := d.Embed(context.Background(), text)
		for j := range single {
			if single[j] != batch[i][j] {
				t.Errorf("batch[%d][%d] differs from single embed", i, j)
			}
		}
	}
}
