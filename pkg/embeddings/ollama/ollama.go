// Package ollama embeds text through a local Ollama server's /api/embed
// endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/docqa/pkg/embeddings"
)

const (
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultBaseURL        = "http://localhost:11434"

	defaultTimeout = 2 * time.Minute

	// errBodyLimit caps how much of a failed response is quoted in errors.
	errBodyLimit = 4 << 10
)

// EmbedderConfig configures an Embedder. Zero fields take the package
// defaults.
type EmbedderConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Embedder calls Ollama. It implements embeddings.BatchEmbedder so a whole
// document is embedded in one request.
type Embedder struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Embedder{
		endpoint: base + "/api/embed",
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends every text in one /api/embed request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}{e.model, texts})
	if err != nil {
		return nil, e.fail("encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, e.fail("building request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.fail("calling ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, fmt.Errorf("%w: ollama %s: %s", embeddings.ErrEmbedding, resp.Status, bytes.TrimSpace(body))
	}

	var out struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, e.fail("decoding response", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs",
			embeddings.ErrEmbedding, len(out.Embeddings), len(texts))
	}
	for i, v := range out.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: ollama returned an empty embedding for input %d", embeddings.ErrEmbedding, i)
		}
	}
	return out.Embeddings, nil
}

func (e *Embedder) fail(step string, err error) error {
	return fmt.Errorf("%w: %s (model %s): %v", embeddings.ErrEmbedding, step, e.model, err)
}

func (e *Embedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

var _ embeddings.BatchEmbedder = (*Embedder)(nil)
