// Package api provides an HTTP API server for indexing, inspecting and
// searching documents.
package api

import (
	"github.com/papercomputeco/docqa/pkg/capability"
	"github.com/papercomputeco/docqa/pkg/ingest"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Pool runs ?async=true builds. Async requests are refused when nil.
	Pool *ingest.Pool

	// Capability is reported by /v1/capability. Nil reports keyword mode.
	Capability *capability.Capability
}
