package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Remote is an HTTP-backed embedding provider for a hosted API. It is
// rate-limited client-side and retries transient failures with
// exponential backoff, per §5's "5 attempts, 1-30s wait" baseline.
type Remote struct {
	baseURL    string
	apiKey     string
	model      string
	dim        int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// RemoteOption configures a Remote provider.
type RemoteOption func(*Remote)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.httpClient = c }
}

func WithRateLimit(requestsPerSecond float64, burst int) RemoteOption {
	return func(r *Remote) { r.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst) }
}

func WithLogger(logger arbor.ILogger) RemoteOption {
	return func(r *Remote) { r.logger = logger }
}

// NewRemote returns a Remote provider targeting baseURL with apiKey,
// declaring model/dim as its fixed identity.
func NewRemote(baseURL, apiKey, model string, dim int, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dim:        dim,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Remote) ProviderName() string { return "remote:" + r.model }

func (r *Remote) Dimension() int { return r.dim }

func (r *Remote) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := r.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (r *Remote) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.WaitN(ctx, len(texts)); err != nil {
		return nil, trailerr.New(trailerr.KindRemote, "provider.Remote.EmbedBatch", err)
	}

	const maxAttempts = 5
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		vecs, err := r.doRequest(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		if r.logger != nil {
			r.logger.Warn().Err(err).Int("attempt", attempt).Msg("provider.Remote: embed batch failed, retrying")
		}
		if attempt == maxAttempts {
			break
		}
		wait := backoff(attempt)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, trailerr.New(trailerr.KindRemote, "provider.Remote.EmbedBatch", ctx.Err())
		}
	}
	return nil, trailerr.New(trailerr.KindRemote, "provider.Remote.EmbedBatch", lastErr)
}

// backoff returns the capped exponential backoff for attempt,
// clamped to the 1-30s baseline window.
func backoff(attempt int) time.Duration {
	wait := time.Duration(1<<uint(attempt-1)) * time.Second
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	return wait
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (r *Remote) doRequest(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: r.model, Input: texts})
	if err != nil {
		return nil, trailerr.New(trailerr.KindParse, "provider.Remote.doRequest", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, trailerr.New(trailerr.KindConfiguration, "provider.Remote.doRequest", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, trailerr.New(trailerr.KindRemote, "provider.Remote.doRequest", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, trailerr.Newf(trailerr.KindRemote, "provider.Remote.doRequest", "status %d: %s", resp.StatusCode, string(data))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, trailerr.New(trailerr.KindParse, "provider.Remote.doRequest", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, trailerr.Newf(trailerr.KindRemote, "provider.Remote.doRequest", "expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	vecs := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) != r.dim {
			return nil, trailerr.New(trailerr.KindDimensionMismatch, "provider.Remote.doRequest",
				fmt.Errorf("embedding %d has dim %d, provider declares %d", i, len(d.Embedding), r.dim))
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
