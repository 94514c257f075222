// Package indexcmder provides the index command for building a document's
// chunks and vector index from a file.
package indexcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/stack"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/extract"
	"github.com/papercomputeco/docqa/pkg/index"
	"github.com/papercomputeco/docqa/pkg/logger"
)

type indexCommander struct {
	id    int64
	path  string
	watch bool

	cfgFlags [][]string
	debug    bool
}

const indexLongDesc string = `Index a document file into the local store.

The file is converted to text by extension (.txt, .md, .pdf), normalized,
split into overlapping chunks and, when the configured embedding provider
is reachable, embedded into a vector index. The result replaces whatever
was stored for the document id before.

Use --watch to keep running and re-index the file whenever it changes.

Examples:
  docqa index 1 ./handbook.pdf
  docqa index 2 ./notes.md --chunk-size 500 --chunk-overlap 50
  docqa index 2 ./notes.md --watch`

const indexShortDesc string = "Index a document file"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{
		cfgFlags: [][]string{stack.IndexFlags, stack.EventFlags},
	}

	cmd := &cobra.Command{
		Use:   "index <id> <file>",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.id, err = stack.ParseDocumentID(args[0])
			if err != nil {
				return err
			}
			cmder.path = args[1]

			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Re-index the file whenever it changes")
	stack.AddFlags(cmd, cmder.cfgFlags...)

	return cmd
}

func (c *indexCommander) run(cmd *cobra.Command) error {
	if !extract.Supported(c.path) {
		return fmt.Errorf("unsupported file type: %s", c.path)
	}

	cfg, configDir, err := stack.LoadConfig(cmd, c.cfgFlags...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(cmd.ErrOrStderr()))

	s, err := stack.Open(ctx, stack.Options{
		Config:    cfg,
		ConfigDir: configDir,
		Semantic:  true,
		Events:    true,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if err := c.build(ctx, out, s.Manager); err != nil {
		return err
	}

	if !c.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.watchFile(ctx, out, s.Manager, log)
}

func (c *indexCommander) build(ctx context.Context, w io.Writer, m *index.Manager) error {
	var result index.BuildResult
	err := cliui.Step(w, fmt.Sprintf("Indexing %s as document %d", filepath.Base(c.path), c.id), func() error {
		text, err := extract.Extract(c.path)
		if err != nil {
			return err
		}
		result, err = m.Build(ctx, c.id, text)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "    %s %s  %s %s\n",
		cliui.KeyStyle.Render("chunks:"), cliui.ValueStyle.Render(fmt.Sprint(result.Chunks)),
		cliui.KeyStyle.Render("mode:"), cliui.ModeStyle.Render(string(result.Mode)),
	)
	return nil
}

// watchFile watches the file's directory so editors that replace the file
// on save are still seen.
func (c *indexCommander) watchFile(ctx context.Context, w io.Writer, m *index.Manager, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(c.path), err)
	}

	fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("Watching for changes, press Ctrl+C to stop"))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(c.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := c.build(ctx, w, m); err != nil {
				log.Warn("re-index failed", "path", c.path, "error", err)
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}
