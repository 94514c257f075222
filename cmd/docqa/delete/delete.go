// Package deletecmder provides the delete command removing a document from
// the local store.
package deletecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/stack"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/logger"
)

const deleteLongDesc string = `Delete a document from the local store.

Removes the document's chunks, embeddings and vector index. Deleting a
document that was never indexed is not an error.

Examples:
  docqa delete 1`

const deleteShortDesc string = "Delete a document"

func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := stack.ParseDocumentID(args[0])
			if err != nil {
				return err
			}

			cfg, configDir, err := stack.LoadConfig(cmd, stack.StorageFlags, stack.EventFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			s, err := stack.Open(context.Background(), stack.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Events:    true,
				Logger:    logger.New(logger.WithDebug(debug), logger.WithPretty(true), logger.WithWriter(cmd.ErrOrStderr())),
			})
			if err != nil {
				return err
			}
			defer s.Close()

			s.Manager.Delete(context.Background(), id)

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted document %s\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(fmt.Sprint(id)),
			)
			return nil
		},
	}

	stack.AddFlags(cmd, stack.StorageFlags, stack.EventFlags)

	return cmd
}
