package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key with its value from the config.toml
file stored in the .docqa/ directory, defaults filled in.

Examples:
  docqa config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			cfger, err := openConfiger(out, configDir)
			if err != nil {
				return err
			}

			keys := config.ValidConfigKeys()

			// Find the longest key name for alignment.
			maxLen := 0
			for _, k := range keys {
				maxLen = max(maxLen, len(k))
			}

			for _, key := range keys {
				value, err := cfger.GetConfigValue(key)
				if err != nil {
					return err
				}

				padded := fmt.Sprintf("%-*s", maxLen, key)
				if value == "" {
					fmt.Fprintf(out, "  %s = %s\n", cliui.KeyStyle.Render(padded), cliui.DimStyle.Render("<not set>"))
				} else {
					fmt.Fprintf(out, "  %s = %s\n", cliui.KeyStyle.Render(padded), cliui.ValueStyle.Render(fmt.Sprintf("%q", value)))
				}
			}

			fmt.Fprintln(out)
			return nil
		},
	}

	return cmd
}
