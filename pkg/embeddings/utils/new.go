// Package embeddingutils builds the configured embeddings.Embedder.
package embeddingutils

import (
	"fmt"
	"slices"
	"strings"

	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/embeddings/hashing"
	"github.com/papercomputeco/docqa/pkg/embeddings/ollama"
	"github.com/papercomputeco/docqa/pkg/embeddings/openai"
)

const (
	ProviderNone    = "none"
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint
}

var constructors = map[string]func(*NewEmbedderOpts) (embeddings.Embedder, error){
	ProviderOllama: func(o *NewEmbedderOpts) (embeddings.Embedder, error) {
		return ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: o.TargetURL, Model: o.Model})
	},
	ProviderOpenAI: func(o *NewEmbedderOpts) (embeddings.Embedder, error) {
		return openai.NewEmbedder(openai.EmbedderConfig{BaseURL: o.TargetURL, Model: o.Model, Dimensions: o.Dimensions})
	},
	ProviderHashing: func(o *NewEmbedderOpts) (embeddings.Embedder, error) {
		return hashing.NewEmbedder(hashing.EmbedderConfig{Dimensions: o.Dimensions})
	},
}

// Providers lists the provider names NewEmbedder accepts besides "none".
func Providers() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewEmbedder builds the embedder for o.ProviderType. "none" and "" yield
// embeddings.ErrDisabled.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(o.ProviderType))
	if provider == "" || provider == ProviderNone {
		return nil, embeddings.ErrDisabled
	}

	build, ok := constructors[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider: %s (want one of %s, %s)",
			o.ProviderType, strings.Join(Providers(), ", "), ProviderNone)
	}
	return build(o)
}
