// Package main provides the autorovers command-line client.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/autorovers/autorovers/internal/config"
	sdk "github.com/autorovers/autorovers/pkg/sdk"
)

var (
	// Global flags
	configEnv  string
	owner      string
	outputJSON bool
	timeout    time.Duration

	cfg config.Config
)

// annotationNoOwner marks commands that run without --owner.
const annotationNoOwner = "no-owner"

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "autoroversctl",
	Short: "Manage compare selections and run vehicle comparisons",
	Long: `autoroversctl works directly against the autorovers store and catalog.

Use this tool to:
- Toggle vehicles in and out of a compare selection
- Lock a session to bikes or cars
- Render the comparison table for a selection
- Watch a selection change live, including changes made by the API server

The store and catalog come from config/<env>.yaml, the same file the server reads.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configEnv)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if owner == "" && cmd.Annotations[annotationNoOwner] == "" {
			return fmt.Errorf("--owner is required")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configEnv, "config-env", config.GetEnv(), "config environment (reads config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVarP(&owner, "owner", "o", os.Getenv("AUTOROVERS_OWNER"), "session that owns the selection")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for a single command")

	rootCmd.AddCommand(newSelectCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newTypeCmd())
	rootCmd.AddCommand(newHealthCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// openClient connects an SDK client described by the loaded config.
func openClient(ctx context.Context) (*sdk.Client, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client, err := sdk.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return client, nil
}

// clientOptions maps the service config onto SDK options.
func clientOptions(c config.Config) ([]sdk.Option, error) {
	opts := []sdk.Option{
		sdk.WithKeyPrefix(c.Storage.KeyPrefix),
		sdk.WithCatalog(c.Catalog.BaseURL, c.Catalog.Token),
		sdk.WithPolicy(c.Compare.Validation, c.Compare.Fuel),
	}
	if c.Catalog.CacheSec > 0 {
		opts = append(opts, sdk.WithCatalogCache(time.Duration(c.Catalog.CacheSec)*time.Second))
	}
	if c.Compare.FetchTimeoutSec > 0 {
		opts = append(opts, sdk.WithFetchTimeout(time.Duration(c.Compare.FetchTimeoutSec)*time.Second))
	}

	switch c.Database.Driver {
	case config.DriverValkey:
		opts = append(opts, sdk.WithValkey(c.Database.Addrs[0], c.Database.Password))
	case config.DriverRedis:
		opts = append(opts, sdk.WithRedis(c.Database.Addrs[0], c.Database.Password))
	case config.DriverFile:
		opts = append(opts, sdk.WithFileStore(c.Database.FileDir))
	case config.DriverMemory:
		opts = append(opts, sdk.WithMemoryStore())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return opts, nil
}

// withClient runs fn with a connected client and a command-scoped deadline.
func withClient(fn func(ctx context.Context, client *sdk.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(ctx, client)
}
