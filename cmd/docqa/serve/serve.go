// Package servecmder provides the serve command running the docqa API and
// MCP server.
package servecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/api"
	"github.com/papercomputeco/docqa/cmd/docqa/stack"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/ingest"
	"github.com/papercomputeco/docqa/pkg/logger"
)

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagIngestWorkers,
	config.FlagIngestQueueSize,
}

type serveCommander struct {
	cfg       *config.Config
	configDir string
	debug     bool
	logFile   string
}

const serveLongDesc string = `Run the docqa API server.

On startup the configured embedding provider and vector index are probed
once. When the probe succeeds documents are indexed and searched
semantically; otherwise every document uses keyword search.

The server exposes:
  PUT    /v1/documents/:id          Index a document ({"text": ...}, ?async=true to queue)
  GET    /v1/documents/:id          Describe a document
  GET    /v1/documents/:id/chunks   List a document's chunks
  GET    /v1/documents/:id/search   Search a document (?query=...&top_k=5)
  DELETE /v1/documents/:id          Delete a document
  GET    /v1/capability             Report the semantic capability
  POST   /mcp                       MCP tools (search_document, document_chunks)`

const serveShortDesc string = "Run the docqa API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, cmder.configDir, err = stack.LoadConfig(cmd, stack.IndexFlags, stack.EventFlags, serveFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	stack.AddFlags(cmd, stack.IndexFlags, stack.EventFlags, serveFlags)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, closeLog, err := newServeLogger(os.Stdout, c.logFile, c.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := stack.Open(ctx, stack.Options{
		Config:    c.cfg,
		ConfigDir: c.configDir,
		Semantic:  true,
		Events:    true,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("error closing index", "error", err)
		}
	}()

	pool, err := ingest.NewPool(&ingest.Config{
		Builder:    s.Manager,
		NumWorkers: c.cfg.Ingest.Workers,
		QueueSize:  c.cfg.Ingest.QueueSize,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating ingest pool: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Pool:       pool,
		Capability: s.Capability,
	}, s.Manager, log)
	if err != nil {
		pool.Close()
		return fmt.Errorf("creating API server: %w", err)
	}

	log.Info("serving documents",
		"storage_root", s.Root,
		"semantic", s.Manager.Semantic(),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err = <-errChan:
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		if shutdownErr := server.Shutdown(); shutdownErr != nil {
			log.Warn("error shutting down API server", "error", shutdownErr)
		}
	}

	// Queued builds finish before the index is closed.
	pool.Close()
	return err
}

// newServeLogger returns the pretty console logger, teed into a JSON log
// file when path is set.
func newServeLogger(console io.Writer, path string, debug bool) (*slog.Logger, func(), error) {
	pretty := logger.New(logger.WithDebug(debug), logger.WithPretty(true), logger.WithWriter(console))
	if path == "" {
		return pretty, func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(logger.WithDebug(debug), logger.WithJSON(true), logger.WithWriter(f))
	return logger.Tee(pretty, file), func() { _ = f.Close() }, nil
}
