// Package versioncmder provides the version command.
package versioncmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/utils"
)

type versionCommander struct {
	short   bool
	jsonOut bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout(), utils.Build())
		},
	}

	cmd.Flags().BoolVar(&cmder.short, "short", false, "Print only the version")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print build info as JSON")
	cmd.MarkFlagsMutuallyExclusive("short", "json")

	return cmd
}

func (c *versionCommander) run(w io.Writer, b utils.BuildInfo) error {
	switch {
	case c.short:
		_, err := fmt.Fprintln(w, b.Version)
		return err
	case c.jsonOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}

	rows := [][2]string{
		{"Version", cliui.ValueStyle.Render(b.Version)},
		{"Sha", cliui.DimStyle.Render(b.Sha)},
		{"Built at", cliui.DimStyle.Render(b.Buildtime)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-9s", row[0]+":")), row[1]); err != nil {
			return err
		}
	}
	return nil
}
