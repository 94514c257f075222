// Package hashing implements a local embeddings.Embedder that projects a
// bag of words onto a fixed number of dimensions with feature hashing. It
// needs no model or network and is fully deterministic.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/papercomputeco/docqa/pkg/embeddings"
)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 256

// Embedder produces L2-normalized hashed term-frequency vectors.
type Embedder struct {
	dimensions int
}

// EmbedderConfig holds configuration for the hashing embedder.
type EmbedderConfig struct {
	// Dimensions is the output vector size. Defaults to DefaultDimensions.
	Dimensions uint
}

// NewEmbedder creates a hashing embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	dims := int(cfg.Dimensions)
	if dims == 0 {
		dims = DefaultDimensions
	}
	if dims > math.MaxInt32 {
		return nil, fmt.Errorf("hashing embedder dimensions %d too large", dims)
	}
	return &Embedder{dimensions: dims}, nil
}

// Dimensions returns the output vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed hashes each lowercased word of text into a signed bucket.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbedding, err)
	}

	vec := make([]float32, e.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if word == "" {
			continue
		}

		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dimensions))
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
