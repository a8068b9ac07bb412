package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	sdk "github.com/autorovers/autorovers/pkg/sdk"
)

// newTypeCmd creates the type command group.
func newTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Show or change the vehicle type lock",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the locked vehicle type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				return printLine(cmd.OutOrStdout(), client.VehicleType(owner).Get(ctx))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <Bike|Car>",
		Short:     "Lock the session to a vehicle type; a selection of the other type is cleared",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(sdk.LineBike), string(sdk.LineCar)},
		RunE: func(cmd *cobra.Command, args []string) error {
			line, ok := sdk.ParseLine(args[0])
			if !ok {
				return fmt.Errorf("vehicle type must be %s or %s, got %q", sdk.LineBike, sdk.LineCar, args[0])
			}
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				if err := client.VehicleType(owner).Set(ctx, line); err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), line)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the vehicle type lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				if err := client.VehicleType(owner).Clear(ctx); err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), "")
			})
		},
	})

	return cmd
}
