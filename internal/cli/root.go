package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the autosales command tree.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "autosales",
		Short:         "Automobile sales recession and yearly report dashboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Start the dashboard on :8050
  autosales serve

  # Print the recession chart for sports cars as YAML
  autosales render --chart recession --vehicle Sports --format yaml --seed 7

  # Export the yearly chart as a standalone HTML page
  autosales render --chart yearly --vehicle Executivecar --format html --out yearly.html`,
	}

	cmd.PersistentFlags().String("env-file", "", "load environment from this file (default .env if present)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	cmd.PersistentFlags().String("log-format", "text", "log format: text or json (overrides LOG_FORMAT)")

	cmd.AddCommand(newServeCmd(), newRenderCmd(), newWatchCmd())
	return cmd
}
