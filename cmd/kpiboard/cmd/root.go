package cmd

import (
	"log/slog"
	"os"

	"github.com/nfrund/kpiboard/internal/config"
	"github.com/nfrund/kpiboard/internal/logging"
	"github.com/spf13/cobra"
)

var sessionDir string

var rootCmd = &cobra.Command{
	Use:   "kpiboard",
	Short: "Campaign KPI dashboard",
	Long: `kpiboard serves a single-user campaign dashboard: a login panel, four KPI
cards and a performance chart for a selectable date range.

Configuration is read from the environment and an optional .env file.

Use "kpiboard [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logging.New(os.Stderr))
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionDir, "session-dir", "", "directory holding the session slot (overrides SESSION_DIR)")
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if sessionDir != "" {
		cfg.SessionDir = sessionDir
	}
	return cfg, nil
}
