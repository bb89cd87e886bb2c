package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		// auto-migrate may already have run on open; migrations are idempotent
		if err := a.migrate(cmd.Context()); err != nil {
			return err
		}

		a.logger.Info("schema is up to date", zap.String("driver", a.config.Database.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
