package cmd

import (
	"fmt"

	"github.com/nfrund/kpiboard/internal/session"
	"github.com/nfrund/kpiboard/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the stored session",
	Long: `The dashboard keeps the logged in email in a session slot on disk, so a
restart returns to the dashboard. These commands work on that slot directly.

Examples:
  kpiboard session show
  kpiboard session clear`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSessionStore()
		if err != nil {
			return err
		}
		id, ok, err := store.Get(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", id)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSessionStore()
		if err != nil {
			return err
		}
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
		return nil
	},
}

func openSessionStore() (*session.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.NewStore(storage.NewAferoStore(afero.NewOsFs(), cfg.GetSessionDir())), nil
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd, sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}
