package cmd

import (
	"context"
	"log/slog"

	"github.com/nfrund/kpiboard/internal/app"
	"github.com/nfrund/kpiboard/internal/server"
	"github.com/nfrund/kpiboard/web"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Long: `Run the dashboard. The server stops gracefully on SIGINT or SIGTERM.

Examples:
  kpiboard serve
  kpiboard serve --addr :9090 --session-dir /var/lib/kpiboard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.AppAddr = serveAddr
		}

		ctx := context.Background()
		a, err := app.New(ctx, cfg, slog.Default(), app.Options{Version: version})
		if err != nil {
			return err
		}

		s := server.New(a, web.Static())
		s.RegisterRoutes()
		return s.Start(ctx, cfg.GetAppAddr())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides APP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
