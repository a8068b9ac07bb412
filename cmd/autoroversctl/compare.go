package main

import (
	"context"

	"github.com/spf13/cobra"

	sdk "github.com/autorovers/autorovers/pkg/sdk"
)

// newCompareCmd creates the compare subcommand.
func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Render the comparison table for the selection",
		Long: `Compare fetches every selected vehicle from the catalog and prints them side by side.
Vehicles that cannot be fetched or are missing required specs are listed below the
table and removed from the stored selection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				res, err := client.Compare(ctx, owner)
				if err != nil {
					return err
				}
				return printComparison(cmd.OutOrStdout(), res)
			})
		},
	}
}
