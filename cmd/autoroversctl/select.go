package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	sdk "github.com/autorovers/autorovers/pkg/sdk"
)

// newSelectCmd creates the select command group.
func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Inspect and edit the compare selection",
	}
	cmd.AddCommand(newSelectToggleCmd())
	cmd.AddCommand(newSelectRemoveCmd())
	cmd.AddCommand(newSelectClearCmd())
	cmd.AddCommand(newSelectShowCmd())
	return cmd
}

func newSelectToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <slug>",
		Short: "Add a vehicle to the selection, or remove it if already selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				v, err := client.Lookup(ctx, args[0])
				if err != nil {
					return err
				}
				sel, reason, err := client.Selection(owner).Toggle(ctx, v)
				if err != nil {
					return err
				}
				if reason != sdk.ReasonNone {
					fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(reason.Message()))
				}
				return printSelection(cmd.OutOrStdout(), sel)
			})
		},
	}
}

func newSelectRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <slug>",
		Short: "Remove a vehicle from the selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				sel, err := client.Selection(owner).Remove(ctx, args[0])
				if err != nil {
					return err
				}
				return printSelection(cmd.OutOrStdout(), sel)
			})
		},
	}
}

func newSelectClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				if err := client.Selection(owner).Clear(ctx); err != nil {
					return err
				}
				return printSelection(cmd.OutOrStdout(), sdk.Selection{})
			})
		},
	}
}

func newSelectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *sdk.Client) error {
				return printSelection(cmd.OutOrStdout(), client.Selection(owner).Get(ctx))
			})
		},
	}
}
