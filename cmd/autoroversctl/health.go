package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	sdk "github.com/autorovers/autorovers/pkg/sdk"
)

// newHealthCmd creates the health command. It needs no owner.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "health",
		Short:       "Check the selection store and the catalog",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoOwner: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				h := client.Health(ctx)
				if err := printHealth(cmd.OutOrStdout(), h); err != nil {
					return err
				}
				if !h.Serving() {
					return fmt.Errorf("selection store unavailable")
				}
				return nil
			})
		},
	}
}
