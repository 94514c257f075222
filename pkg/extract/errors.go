package extract

import "errors"

// ErrUnsupportedType is returned for files whose extension has no extractor.
var ErrUnsupportedType = errors.New("unsupported document type")
