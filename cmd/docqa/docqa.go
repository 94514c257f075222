// Package docqacmder
package docqacmder

import (
	"github.com/spf13/cobra"

	chunkscmder "github.com/papercomputeco/docqa/cmd/docqa/chunks"
	configcmder "github.com/papercomputeco/docqa/cmd/docqa/config"
	deletecmder "github.com/papercomputeco/docqa/cmd/docqa/delete"
	indexcmder "github.com/papercomputeco/docqa/cmd/docqa/index"
	searchcmder "github.com/papercomputeco/docqa/cmd/docqa/search"
	servecmder "github.com/papercomputeco/docqa/cmd/docqa/serve"
	statuscmder "github.com/papercomputeco/docqa/cmd/docqa/status"
	versioncmder "github.com/papercomputeco/docqa/cmd/version"
)

const docqaLongDesc string = `docqa indexes documents into overlapping chunks and answers
top-k retrieval queries over them, semantically when an embedding
provider is reachable and by keyword overlap otherwise.

Run services using:
  docqa serve                 Run the API and MCP server
  docqa index <id> <file>     Index a file into the local store
  docqa search <id> <query>   Search a locally indexed document`

const docqaShortDesc string = "docqa - document indexing and retrieval"

func NewDocqaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "docqa",
		Short:        docqaShortDesc,
		Long:         docqaLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .docqa/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(chunkscmder.NewChunksCmd())
	cmd.AddCommand(deletecmder.NewDeleteCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
