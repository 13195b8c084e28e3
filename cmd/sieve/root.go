package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asaidimu/go-sieve/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "yaml"
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"json", "yaml"}

// NewRootCommand creates the root command of the sieve CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "sieve",
		Short:         "Filter and sort documents with a compact query syntax",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			settings, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if opts.Logger, err = settings.Logger(); err != nil {
				return err
			}
			return settings.Install(opts.Logger)
		},
	}

	config.BindFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewPatternCommand(opts))
	return cmd
}
