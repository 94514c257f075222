package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/docqa/api/mcp"
	"github.com/papercomputeco/docqa/pkg/index"
)

// Server is the API server for indexing and querying documents.
type Server struct {
	config  Config
	manager *index.Manager
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The manager is injected so the
// ingest pool and the server share one set of document locks.
func NewServer(config Config, manager *index.Manager, logger *slog.Logger) (*Server, error) {
	if manager == nil {
		return nil, errors.New("index manager is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Index:  manager,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		manager: manager,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/capability", s.handleCapability)

	app.Put("/v1/documents/:id", s.handleIndex)
	app.Get("/v1/documents/:id", s.handleInfo)
	app.Delete("/v1/documents/:id", s.handleDelete)
	app.Get("/v1/documents/:id/chunks", s.handleChunks)
	app.Get("/v1/documents/:id/search", s.handleSearch)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
