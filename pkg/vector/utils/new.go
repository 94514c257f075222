// Package vectorutils is the vector index utility package
package vectorutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/docqa/pkg/vector"
	"github.com/papercomputeco/docqa/pkg/vector/flat"
	"github.com/papercomputeco/docqa/pkg/vector/sqlitevec"
)

// ProviderNone disables vector indexing.
const ProviderNone = "none"

type NewProviderOpts struct {
	ProviderType string
	Logger       *slog.Logger
}

// NewProvider builds the index provider for the configured type.
func NewProvider(o *NewProviderOpts) (vector.Provider, error) {
	switch o.ProviderType {
	case "", ProviderNone:
		return nil, vector.ErrDisabled
	case flat.ProviderName:
		return flat.NewProvider(), nil
	case sqlitevec.ProviderName:
		return sqlitevec.NewProvider(sqlitevec.Config{Logger: o.Logger})
	default:
		return nil, fmt.Errorf("unsupported vector index provider: %s", o.ProviderType)
	}
}
