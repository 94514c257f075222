// Package configcmder provides the config command for managing persistent
// docqa configuration stored in the .docqa/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/config"
)

const configLongDesc string = `Manage persistent docqa configuration.

Configuration is stored as config.toml in the .docqa/ directory and provides
default values for command flags. CLI flags and DOCQA_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.root,
  chunking.size, chunking.overlap,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  vector_index.provider, index.max_resident,
  api.listen, client.api_target,
  ingest.workers, ingest.queue_size,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  docqa config set <key> <value>    Set a configuration value
  docqa config get <key>            Get a configuration value
  docqa config list                 List all configuration values

Examples:
  docqa config set embedding.provider openai
  docqa config set chunking.size 800
  docqa config get vector_index.provider
  docqa config list`

const configShortDesc string = "Manage persistent docqa configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func openConfiger(w io.Writer, configDir string) (*config.Configer, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}

	return cfger, nil
}
