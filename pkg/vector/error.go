package vector

import "errors"

var (
	// ErrEmptyMatrix is returned when an index is built from no rows.
	ErrEmptyMatrix = errors.New("empty embedding matrix")

	// ErrDimensionMismatch is returned when vector lengths disagree.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorrupt is returned when a persisted artifact cannot be decoded.
	ErrCorrupt = errors.New("corrupt vector artifact")

	// ErrDisabled is returned by provider factories when vector indexing is
	// switched off by configuration.
	ErrDisabled = errors.New("vector index disabled")

	// ErrClosed is returned when searching an index that has been closed.
	ErrClosed = errors.New("index closed")
)
