package main

import (
	"github.com/spf13/cobra"

	"github.com/testforge/shopsuite/internal/scenarios"
)

func newListCmd() *cobra.Command {
	var suites, ids []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scenario catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := scenarios.Select(scenarios.Catalog(), suites, ids)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&suites, "suite", "s", nil, "only these suites")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "only these scenario IDs")
	return cmd
}
