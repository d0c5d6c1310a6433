package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"turia/internal/platform/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for the client registry schema. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.AddCommand(
		newMigrateDirectionCmd(database.Up, "Apply pending database migrations"),
		newMigrateDirectionCmd(database.Down, "Revert all database migrations"),
	)
	return cmd
}

func newMigrateDirectionCmd(dir database.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(dir),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if err := database.Migrate(cfg.Database.URL, dir); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			commandLogger(cmd).Info("migrations applied", "direction", dir)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", dir)
			return err
		},
	}
}
