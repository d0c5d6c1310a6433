// Package app holds the gstcheck cobra commands.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"turia/internal/platform/config"
	"turia/internal/platform/logger"
)

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gstcheck",
		Short:         "GSTIN verification tool",
		Long:          `gstcheck validates and verifies GSTINs against MasterGST and manages the client registry schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().String("env-file", "", "Optional .env file to load before reading the environment")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(newValidateCmd(), newVerifyCmd(), newTestConnectionCmd(), newMigrateCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// commandLogger writes text logs to stderr so stdout stays machine readable.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	level := "warn"
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	return logger.NewWithWriter(cmd.ErrOrStderr(), level, "text")
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
