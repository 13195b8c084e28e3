package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/core/sorting"
)

// NewPatternCommand creates the pattern command.
func NewPatternCommand(rootOpts *RootOptions) *cobra.Command {
	var schemaPath string
	var list bool
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Print the regular expression of valid sort lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadSchema(schemaPath)
			if err != nil {
				return err
			}
			d := schema.DescribeSchema(def)
			out := cmd.OutOrStdout()
			if list {
				for _, p := range sorting.SortablePaths(d) {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			fmt.Fprintln(out, sorting.Pattern(d, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema definition file")
	cmd.Flags().BoolVar(&list, "paths", false, "list the sortable paths instead")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
