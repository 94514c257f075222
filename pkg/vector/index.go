// Package vector provides nearest-neighbour indexes over a document's chunk
// embedding matrix. Distances are squared Euclidean throughout.
package vector

import (
	"context"
	"fmt"
	"sort"
)

// Neighbor is a single nearest-neighbour hit.
type Neighbor struct {
	// Row is the matrix row, which is also the chunk id.
	Row int

	// Distance is the squared Euclidean distance from the query.
	Distance float32
}

// Index answers k-nearest-neighbour queries over a fixed embedding matrix.
type Index interface {
	// Search returns at most k neighbours of query, nearest first. Ties are
	// broken by ascending row.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)

	// Len is the number of indexed rows.
	Len() int

	// Dimensions is the vector size the index was built with.
	Dimensions() int

	// Save writes the index artifact to path. Callers handle atomic
	// placement of the file.
	Save(path string) error

	// Close releases any resources held by the index.
	Close() error
}

// Provider builds and loads one kind of Index.
type Provider interface {
	// Name identifies the provider in configuration and logs.
	Name() string

	// Build creates an index over rows.
	Build(ctx context.Context, rows [][]float32) (Index, error)

	// Load reads an index previously written with Index.Save.
	Load(ctx context.Context, path string) (Index, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Dimensions returns the shared row length of a non-empty matrix.
func Dimensions(rows [][]float32) (int, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, ErrEmptyMatrix
	}

	dim := len(rows[0])
	for i, row := range rows {
		if len(row) != dim {
			return 0, fmt.Errorf("%w: row %d has %d values, expected %d", ErrDimensionMismatch, i, len(row), dim)
		}
	}
	return dim, nil
}

// CheckQuery validates a query vector against an index and clamps k to
// the number of rows.
func CheckQuery(idx Index, query []float32, k int) (int, error) {
	if len(query) != idx.Dimensions() {
		return 0, fmt.Errorf("%w: query has %d values, index has %d", ErrDimensionMismatch, len(query), idx.Dimensions())
	}
	return min(max(k, 0), idx.Len()), nil
}

// SortNeighbors orders neighbours by ascending distance, then ascending row.
func SortNeighbors(n []Neighbor) {
	sort.Slice(n, func(i, j int) bool {
		if n[i].Distance != n[j].Distance {
			return n[i].Distance < n[j].Distance
		}
		return n[i].Row < n[j].Row
	})
}
