package store

import "errors"

// ErrCorrupt is returned when a persisted artifact is present but unusable.
var ErrCorrupt = errors.New("corrupt document artifact")
