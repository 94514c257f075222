// Package chunkscmder provides the chunks command listing a locally indexed
// document's chunks.
package chunkscmder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/stack"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/utils"
)

const previewLen = 72

const chunksLongDesc string = `List the chunks of a locally indexed document.

Each chunk is shown with its id and its character offsets into the
normalized document text. Use --json for machine-readable output.

Examples:
  docqa chunks 1
  docqa chunks 1 --json`

const chunksShortDesc string = "List a document's chunks"

func NewChunksCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "chunks <id>",
		Short: chunksShortDesc,
		Long:  chunksLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := stack.ParseDocumentID(args[0])
			if err != nil {
				return err
			}

			cfg, configDir, err := stack.LoadConfig(cmd, stack.StorageFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			s, err := stack.Open(context.Background(), stack.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Logger:    logger.New(logger.WithDebug(debug), logger.WithPretty(true), logger.WithWriter(cmd.ErrOrStderr())),
			})
			if err != nil {
				return err
			}
			defer s.Close()

			chunks := s.Manager.Chunks(context.Background(), id)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(chunks)
			}

			if len(chunks) == 0 {
				fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf("No chunks stored for document %d.", id)))
				return nil
			}

			for _, ch := range chunks {
				fmt.Fprintf(out, "  %s %s %s\n",
					cliui.KeyStyle.Render(fmt.Sprintf("%3d", ch.ID)),
					cliui.DimStyle.Render(fmt.Sprintf("[%d:%d]", ch.StartPos, ch.EndPos)),
					cliui.ValueStyle.Render(utils.Truncate(ch.Text, previewLen)),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print chunks as JSON")
	stack.AddFlags(cmd, stack.StorageFlags)

	return cmd
}
