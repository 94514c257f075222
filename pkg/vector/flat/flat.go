// Package flat provides an exhaustive nearest-neighbour index that scores
// every row against the query.
package flat

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/vec/search"

	"github.com/papercomputeco/docqa/pkg/vector"
)

const (
	// ProviderName identifies the flat provider in configuration.
	ProviderName = "flat"

	magic = "DQFL"
)

// Provider builds and loads flat indexes.
type Provider struct{}

// NewProvider creates a flat index provider.
func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return ProviderName }

// Build copies rows into a new index.
func (p *Provider) Build(_ context.Context, rows [][]float32) (vector.Index, error) {
	return newIndex(rows)
}

// Load reads an index written by Index.Save.
func (p *Provider) Load(_ context.Context, path string) (vector.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flat index: %w", err)
	}

	rows, err := vector.DecodeMatrix(magic, data)
	if err != nil {
		return nil, fmt.Errorf("decoding flat index: %w", err)
	}
	return newIndex(rows)
}

func (p *Provider) Close() error { return nil }

// Index is an in-memory flat index.
type Index struct {
	rows []search.Float32s
	dim  int
}

func newIndex(rows [][]float32) (*Index, error) {
	dim, err := vector.Dimensions(rows)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		rows: make([]search.Float32s, len(rows)),
		dim:  dim,
	}
	for i, row := range rows {
		idx.rows[i] = append(search.Float32s(nil), row...)
	}
	return idx, nil
}

// Search scores all rows and returns the k nearest.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if i.rows == nil {
		return nil, vector.ErrClosed
	}

	k, err := vector.CheckQuery(i, query, k)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]vector.Neighbor, len(i.rows))
	for row, v := range i.rows {
		d := v.EuclideanDistance(query)
		hits[row] = vector.Neighbor{Row: row, Distance: d * d}
	}
	vector.SortNeighbors(hits)

	return hits[:k], nil
}

func (i *Index) Len() int { return len(i.rows) }

func (i *Index) Dimensions() int { return i.dim }

// Save writes the matrix in the flat index format.
func (i *Index) Save(path string) error {
	rows := make([][]float32, len(i.rows))
	for n, v := range i.rows {
		rows[n] = v
	}

	data, err := vector.EncodeMatrix(magic, rows)
	if err != nil {
		return fmt.Errorf("encoding flat index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing flat index: %w", err)
	}
	return nil
}

// Close drops the matrix. Later searches return vector.ErrClosed.
func (i *Index) Close() error {
	i.rows = nil
	return nil
}

var (
	_ vector.Provider = (*Provider)(nil)
	_ vector.Index    = (*Index)(nil)
)
