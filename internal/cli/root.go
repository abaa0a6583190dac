// Package cli implements the tether command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/tether/internal/backend"
	"github.com/jacentio/tether/internal/config"
)

// Opener opens the backend described by cfg.
type Opener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend.Backend, error)

// app carries state resolved by the root command for its subcommands.
type app struct {
	open       Opener
	configFile string
	output     string

	cfg     *config.Config
	backend *backend.Backend
	out     io.Writer
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd(backend.Open)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree. open is called once per invocation
// after configuration is loaded.
func NewRootCmd(open Opener) *cobra.Command {
	a := &app{open: open}

	rootCmd := &cobra.Command{
		Use:           "tether",
		Short:         "Manage principal-attached entities",
		Long:          "Command-line interface for tether entity services over memory, DynamoDB or MongoDB backends.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(a.output); err != nil {
				return err
			}
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.out = cmd.OutOrStdout()

			logger := cfg.NewLogger(cmd.ErrOrStderr())
			b, err := a.open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			a.backend = b
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.backend == nil {
				return nil
			}
			return a.backend.Close(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "Output format (text, json)")

	rootCmd.AddCommand(newAuthTypeCmd(a))
	rootCmd.AddCommand(newPrincipalCmd(a))
	rootCmd.AddCommand(newCascadeCmd(a))

	return rootCmd
}
