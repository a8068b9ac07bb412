package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	sdk "github.com/autorovers/autorovers/pkg/sdk"
)

// newWatchCmd creates the watch subcommand.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the selection every time it changes, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			updates := make(chan sdk.Selection, 1)
			unwatch := client.Selection(owner).Watch(func(s sdk.Selection) {
				// keep only the newest snapshot
				select {
				case <-updates:
				default:
				}
				updates <- s
			})
			defer unwatch()

			if err := printSelection(out, client.Selection(owner).Get(ctx)); err != nil {
				return err
			}
			for {
				select {
				case <-ctx.Done():
					fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("stopped"))
					return nil
				case s := <-updates:
					if err := printSelection(out, s); err != nil {
						return err
					}
				}
			}
		},
	}
}
