// Package mcp provides an MCP (Model Context Protocol) server exposing
// document retrieval as tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/docqa/pkg/chunker"
	"github.com/papercomputeco/docqa/pkg/retrieval"
	"github.com/papercomputeco/docqa/pkg/utils"
)

// Index is the slice of the index manager the tools need.
type Index interface {
	Search(ctx context.Context, id int64, query string, k int) retrieval.Results
	Chunks(ctx context.Context, id int64) []chunker.Chunk
}

type Config struct {
	// Index answers searches and chunk listings
	Index Index

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the search_document and
// document_chunks tools.
func NewServer(c Config) (*Server, error) {
	if c.Index == nil {
		return nil, errors.New("index is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docqa",
			Version: utils.Build().Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        chunksToolName,
		Description: chunksDescription,
	}, s.handleChunks)

	s.mcpServer = mcpServer

	// Stateless: every request is served by the same server with no session.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
