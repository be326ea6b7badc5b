// Package provider implements the embedding provider contract of §6:
// dimension, providerName, embed, embedBatch. The core only ever
// depends on interfaces.EmbeddingProvider; concrete providers here are
// swappable implementations, per the Non-goal that the embedding
// model itself stays out of core scope.
package provider

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Dummy is a deterministic, hash-based embedding provider useful for
// tests and local development without a live model dependency: the
// same text always yields the same vector.
type Dummy struct {
	dim int
}

// NewDummy returns a Dummy provider producing vectors of length dim.
func NewDummy(dim int) *Dummy {
	if dim <= 0 {
		dim = 8
	}
	return &Dummy{dim: dim}
}

func (d *Dummy) ProviderName() string { return "dummy" }

func (d *Dummy) Dimension() int { return d.dim }

func (d *Dummy) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, trailerr.New(trailerr.KindRemote, "provider.Dummy.Embed", ctx.Err())
	default:
	}
	return hashVector(text, d.dim), nil
}

func (d *Dummy) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := d.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// hashVector derives a unit-ish vector deterministically from text's
// SHA-256 digest, cycling the digest bytes to fill dim components.
func hashVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	var normSq float64
	for i := 0; i < dim; i++ {
		b := sum[i%len(sum)]
		v := (float64(b)/255.0)*2 - 1
		vec[i] = float32(v)
		normSq += v * v
	}
	norm := math.Sqrt(normSq)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
