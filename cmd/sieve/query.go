package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/sqlite"
)

// QueryOptions holds the flags of the query command.
type QueryOptions struct {
	Schema  string
	Data    string
	Filters []string
	Sort    string
	Backend string // "memory" | "sqlite"
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter and sort a document file",
		Long: `Filter and sort the documents of a YAML or JSON file described by a schema.

Filters are path=syntax pairs, for example --filter 'name=~jo' or
--filter 'born=>=2000,<2001'. Repeat --filter or join pairs with '&'.
Sorts are comma-separated tokens such as 'age-desc,name'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema definition file")
	cmd.Flags().StringVar(&opts.Data, "data", "", "document file")
	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil, "filter pairs path=syntax")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "sort list")
	cmd.Flags().StringVar(&opts.Backend, "backend", "memory", "execution backend (memory|sqlite)")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runQuery(ctx context.Context, rootOpts *RootOptions, opts *QueryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	def, err := loadSchema(opts.Schema)
	if err != nil {
		return err
	}
	docs, err := loadDocuments(opts.Data)
	if err != nil {
		return err
	}

	var result []schema.Document
	switch opts.Backend {
	case "memory":
		f, s, err := buildQuery(schema.DescribeSchema(def), opts.Filters, opts.Sort)
		if err != nil {
			return err
		}
		result, err = query.NewProcessor(rootOpts.Logger).ProcessRows(ctx, docs, f, s)
		if err != nil {
			return err
		}
	case "sqlite":
		store, closeStore, err := openStore(ctx, rootOpts, def)
		if err != nil {
			return err
		}
		defer closeStore()
		if _, err := store.Insert(ctx, docs...); err != nil {
			return err
		}
		f, s, err := buildQuery(store.Descriptor(), opts.Filters, opts.Sort)
		if err != nil {
			return err
		}
		if result, err = store.Find(ctx, f, s); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid backend %q: must be memory or sqlite", opts.Backend)
	}
	return writeDocuments(cmd.OutOrStdout(), rootOpts.Format, result)
}

// openStore creates a store over a private in-memory database.
func openStore(ctx context.Context, rootOpts *RootOptions, def *schema.SchemaDefinition) (*sqlite.Store, func(), error) {
	db, err := sqlite.Open(":memory:")
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(1)
	store, err := sqlite.NewStore(db, def, sqlite.WithLogger(rootOpts.Logger))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := store.CreateTable(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
