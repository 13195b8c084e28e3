package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asaidimu/go-sieve/sqlite"
)

// SQLOptions holds the flags of the sql command.
type SQLOptions struct {
	Schema  string
	Filters []string
	Sort    string
	DDL     bool
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{}
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQLite statement for a filter and sort",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema definition file")
	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil, "filter pairs path=syntax")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "sort list")
	cmd.Flags().BoolVar(&opts.DDL, "ddl", false, "also print the CREATE TABLE statement")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func runSQL(rootOpts *RootOptions, opts *SQLOptions, cmd *cobra.Command) error {
	def, err := loadSchema(opts.Schema)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.DDL {
		ddl, err := sqlite.CreateTableSQL(def)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ddl)
	}

	store, closeStore, err := openStore(cmd.Context(), rootOpts, def)
	if err != nil {
		return err
	}
	defer closeStore()

	f, s, err := buildQuery(store.Descriptor(), opts.Filters, opts.Sort)
	if err != nil {
		return err
	}
	stmt, params, err := store.Explain(f, s)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, stmt)
	fmt.Fprintf(out, "-- params: %s\n", encoded)
	return nil
}
