// Package openai implements an embeddings.Embedder backed by the OpenAI
// embeddings API or any server compatible with it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/docqa/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = string(goopenai.SmallEmbedding3)

	// APIKeyEnv is the environment variable consulted when no key is configured.
	APIKeyEnv = "OPENAI_API_KEY"
)

// Embedder wraps the OpenAI embeddings endpoint.
type Embedder struct {
	client     *goopenai.Client
	model      string
	dimensions int
}

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// APIKey authenticates requests. Falls back to $OPENAI_API_KEY.
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a compatible local server.
	BaseURL string

	// Model is the embedding model. Defaults to DefaultEmbeddingModel.
	Model string

	// Dimensions requests shortened embeddings from models that support it.
	// Zero keeps the model's native size.
	Dimensions uint
}

// NewEmbedder creates an OpenAI embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key == "" {
		return nil, errors.New(APIKeyEnv + " is not set")
	}

	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return &Embedder{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: int(cfg.Dimensions),
	}, nil
}

// maxBatch is the most inputs sent in one embeddings request.
const maxBatch = 512

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in requests of at most maxBatch inputs.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: cannot embed empty text (input %d)", embeddings.ErrEmbedding, i)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		batch := texts[start:min(start+maxBatch, len(texts))]

		resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Model:      goopenai.EmbeddingModel(e.model),
			Input:      batch,
			Dimensions: e.dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: openai request: %v", embeddings.ErrEmbedding, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs",
				embeddings.ErrEmbedding, len(resp.Data), len(batch))
		}

		vecs := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) || len(d.Embedding) == 0 {
				return nil, fmt.Errorf("%w: bad embedding at index %d", embeddings.ErrEmbedding, d.Index)
			}
			vecs[d.Index] = d.Embedding
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Close is a no-op; the client holds no resources that need releasing.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.BatchEmbedder = (*Embedder)(nil)
