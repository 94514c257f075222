package embeddings

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDisabled is returned by provider factories when embeddings are
	// switched off by configuration.
	ErrDisabled = errors.New("embeddings disabled")
)
