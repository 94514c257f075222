// Package searchcmder provides the search command for querying a locally
// indexed document.
package searchcmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/stack"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/retrieval"
	"github.com/papercomputeco/docqa/pkg/utils"
)

const previewLen = 200

type searchCommander struct {
	id       int64
	query    string
	topK     int
	markdown bool

	debug bool
}

const searchLongDesc string = `Search a locally indexed document.

Returns the chunks of the document most relevant to the query, best first.
Documents indexed with a vector index are searched by embedding distance,
which requires the same embedding provider that indexed them. Every other
document, or any semantic failure, falls back to keyword overlap.

Use --markdown to render the results as markdown.

Examples:
  docqa search 1 "refund policy"
  docqa search 1 "refund policy" -k 3
  docqa search 1 "refund policy" --markdown`

const searchShortDesc string = "Search a document"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <id> <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.id, err = stack.ParseDocumentID(args[0])
			if err != nil {
				return err
			}
			cmder.query = args[1]
			if strings.TrimSpace(cmder.query) == "" {
				return fmt.Errorf("query must not be empty")
			}
			if cmder.topK <= 0 {
				return fmt.Errorf("--top must be a positive integer, got %d", cmder.topK)
			}

			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of results to return")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render results as markdown")
	stack.AddFlags(cmd, stack.IndexFlags)

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	cfg, configDir, err := stack.LoadConfig(cmd, stack.IndexFlags)
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
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	results := s.Manager.Search(ctx, c.id, c.query, c.topK)

	out := cmd.OutOrStdout()
	if results.Len() == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	if c.markdown {
		rendered, err := cliui.RenderMarkdown(Markdown(c.id, c.query, results))
		fmt.Fprint(out, rendered)
		return err
	}

	printResults(out, c.id, c.query, results)
	return nil
}

func printResults(w io.Writer, id int64, query string, results retrieval.Results) {
	fmt.Fprintf(w, "\n%s %s %s\n\n",
		cliui.TitleStyle.Render(fmt.Sprintf("Document %d results for", id)),
		cliui.ValueStyle.Render(fmt.Sprintf("%q", query)),
		cliui.ModeStyle.Render("("+string(results.Mode)+")"),
	)

	for i, hit := range results.Hits {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("#%d", i+1)),
			cliui.DimStyle.Render(fmt.Sprintf("chunk %d", hit.ChunkID)),
			cliui.StepStyle.Render(fmt.Sprintf("score: %.4f", hit.Score)),
		)
		fmt.Fprintf(w, "  %s\n\n", cliui.ValueStyle.Render(preview(hit.Text)))
	}
}

// Markdown renders results as a markdown document.
func Markdown(id int64, query string, results retrieval.Results) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Document %d\n\n", id)
	fmt.Fprintf(&b, "Query: **%s** (%s search)\n\n", query, results.Mode)
	for i, hit := range results.Hits {
		fmt.Fprintf(&b, "## %d. Chunk %d\n\n", i+1, hit.ChunkID)
		fmt.Fprintf(&b, "_score %.4f_\n\n", hit.Score)
		for _, line := range strings.Split(hit.Text, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func preview(text string) string {
	return utils.Truncate(strings.ReplaceAll(text, "\n", " "), previewLen)
}
