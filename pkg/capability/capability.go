// Package capability decides once per process whether semantic retrieval is
// available by exercising the configured embedder and vector index end to end.
package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/vector"
)

const (
	// DefaultTimeout bounds the whole probe.
	DefaultTimeout = 10 * time.Second

	probeText = "capability probe"
)

// Probe describes how to construct the semantic stack.
type Probe struct {
	// NewEmbedder constructs the embedder. A nil constructor, or one that
	// returns embeddings.ErrDisabled, means semantic retrieval is switched off.
	NewEmbedder func() (embeddings.Embedder, error)

	// NewProvider constructs the vector index provider. vector.ErrDisabled
	// switches semantic retrieval off.
	NewProvider func() (vector.Provider, error)

	// EmbeddingProvider and IndexProvider name the configured backends for
	// reporting.
	EmbeddingProvider string
	IndexProvider     string

	Timeout time.Duration
	Logger  *slog.Logger
}

// Capability is the outcome of a probe. When Semantic is true, Embedder and
// Provider are live and owned by the caller.
type Capability struct {
	Semantic          bool
	Embedder          embeddings.Embedder
	Provider          vector.Provider
	EmbeddingProvider string
	IndexProvider     string
	Dimensions        int
	Reason            string
}

// Close releases the embedder and provider.
func (c *Capability) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	if c.Provider != nil {
		errs = append(errs, c.Provider.Close())
	}
	return errors.Join(errs...)
}

type outcome struct {
	embedder embeddings.Embedder
	provider vector.Provider
	dims     int
	err      error
}

func (o outcome) release() {
	if o.embedder != nil {
		_ = o.embedder.Close()
	}
	if o.provider != nil {
		_ = o.provider.Close()
	}
}

// Detect runs the probe. It never returns an error and never panics: any
// failure yields a capability with Semantic false and a Reason.
func Detect(ctx context.Context, p Probe) *Capability {
	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}

	c := &Capability{
		EmbeddingProvider: p.EmbeddingProvider,
		IndexProvider:     p.IndexProvider,
	}

	if p.NewEmbedder == nil {
		c.Reason = "no embedding provider configured"
		log.Info("semantic retrieval disabled, using keyword search", "reason", c.Reason)
		return c
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		done <- run(ctx, p)
	}()

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		// The probe may still finish; whatever it built is released then.
		go func() { (<-done).release() }()
		o = outcome{err: fmt.Errorf("probe did not finish: %w", ctx.Err())}
	}

	if o.err != nil {
		c.Reason = o.err.Error()
		if errors.Is(o.err, embeddings.ErrDisabled) || errors.Is(o.err, vector.ErrDisabled) {
			log.Info("semantic retrieval disabled, using keyword search", "reason", c.Reason)
		} else {
			log.Warn("semantic retrieval unavailable, using keyword search", "reason", c.Reason)
		}
		return c
	}

	c.Semantic = true
	c.Embedder = o.embedder
	c.Provider = o.provider
	c.Dimensions = o.dims
	log.Info("semantic retrieval available",
		"embedding_provider", c.EmbeddingProvider,
		"index_provider", c.IndexProvider,
		"dimensions", c.Dimensions,
	)
	return c
}

func run(ctx context.Context, p Probe) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.release()
			o = outcome{err: fmt.Errorf("probe panicked: %v", r)}
		}
	}()

	fail := func(err error) outcome {
		o.release()
		return outcome{err: err}
	}

	emb, err := p.NewEmbedder()
	if err != nil {
		return fail(fmt.Errorf("constructing embedder: %w", err))
	}
	if emb == nil {
		return fail(errors.New("constructing embedder: nil embedder"))
	}
	o.embedder = emb

	vec, err := emb.Embed(ctx, probeText)
	if err != nil {
		return fail(fmt.Errorf("probe embedding: %w", err))
	}
	if len(vec) == 0 {
		return fail(fmt.Errorf("probe embedding: %w", vector.ErrEmptyMatrix))
	}

	if p.NewProvider == nil {
		return fail(fmt.Errorf("constructing index provider: %w", vector.ErrDisabled))
	}
	provider, err := p.NewProvider()
	if err != nil {
		return fail(fmt.Errorf("constructing index provider: %w", err))
	}
	if provider == nil {
		return fail(errors.New("constructing index provider: nil provider"))
	}
	o.provider = provider

	idx, err := provider.Build(ctx, [][]float32{vec})
	if err != nil {
		return fail(fmt.Errorf("probe index build: %w", err))
	}
	defer idx.Close()

	hits, err := idx.Search(ctx, vec, 1)
	if err != nil {
		return fail(fmt.Errorf("probe index search: %w", err))
	}
	if len(hits) != 1 || hits[0].Row != 0 {
		return fail(errors.New("probe index search returned no match"))
	}

	o.dims = len(vec)
	return o
}
