// Package statuscmder provides the status command reporting whether a docqa
// API server is reachable and which retrieval mode it is using.
package statuscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/api"
	"github.com/papercomputeco/docqa/cmd/docqa/stack"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/config"
)

const requestTimeout = 5 * time.Second

var statusFlags = []string{config.FlagAPITarget}

const statusLongDesc string = `Show the status of a running docqa API server.

Connects to the configured API target and reports whether semantic
retrieval is available, with the embedding and index providers in use or
the reason the server fell back to keyword search.

Examples:
  docqa status
  docqa status --api-target http://localhost:8081`

const statusShortDesc string = "Show API server status"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := stack.LoadConfig(cmd, statusFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			capability, err := FetchCapability(ctx, cfg.Client.APITarget)
			if err != nil {
				return err
			}

			printStatus(cmd.OutOrStdout(), cfg.Client.APITarget, capability)
			return nil
		},
	}

	stack.AddFlags(cmd, statusFlags)

	return cmd
}

// FetchCapability calls GET /v1/capability on the API server at apiTarget.
func FetchCapability(ctx context.Context, apiTarget string) (*api.CapabilityResponse, error) {
	target, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	target.Path = "/v1/capability"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating capability request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to docqa API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capability request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var out api.CapabilityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse capability response: %w", err)
	}
	return &out, nil
}

func printStatus(w io.Writer, target string, c *api.CapabilityResponse) {
	fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Server:   "), cliui.ValueStyle.Render(target))

	if !c.Semantic {
		fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Retrieval:"), cliui.ModeStyle.Render("keyword"))
		if c.Reason != "" {
			fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Reason:   "), cliui.DimStyle.Render(c.Reason))
		}
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Retrieval:"), cliui.ModeStyle.Render("semantic"))
	fmt.Fprintf(w, "  %s %s %s\n",
		cliui.KeyStyle.Render("Embedding:"),
		cliui.ValueStyle.Render(c.EmbeddingProvider),
		cliui.DimStyle.Render(fmt.Sprintf("(%d dimensions)", c.Dimensions)),
	)
	fmt.Fprintf(w, "  %s %s\n\n", cliui.KeyStyle.Render("Index:    "), cliui.ValueStyle.Render(c.IndexProvider))
}
