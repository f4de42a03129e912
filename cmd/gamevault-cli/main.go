// Package main provides the GameVault CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/JustMelih/GameVault/internal/app"
	"github.com/JustMelih/GameVault/internal/config"
	"github.com/JustMelih/GameVault/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli holds the state shared by every subcommand.
type cli struct {
	cfgFile    string
	outputJSON bool
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "gamevault-cli",
		Short: "GameVault CLI for natural-language game discovery",
		Long: `GameVault CLI runs the discovery pipeline locally.

Use this tool to:
- Search for games with a free-text description
- Inspect how a query is interpreted
- Replay a file of queries and summarize the results
- Review recent searches from the audit log
- Purge memoized intents from the shared cache

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), c.outputJSON)
			if cmd.Name() == "version" {
				return nil
			}

			var err error
			c.cfg, err = config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "gamevault-cli",
			})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", os.Getenv("CONFIG_PATH"), "config file path (default: uses env vars)")
	root.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(c.newSearchCmd())
	root.AddCommand(c.newIntentCmd())
	root.AddCommand(c.newBatchCmd())
	root.AddCommand(c.newHistoryCmd())
	root.AddCommand(c.newCacheCmd())
	root.AddCommand(c.newVersionCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open builds the search stack. The CLI has one caller, so no throttle.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	return app.New(ctx, c.cfg, c.logger, app.WithoutThrottle())
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.outputJSON {
				return c.ui.JSON(map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gamevault-cli %s (%s)\n", version, runtime.Version())
			return nil
		},
	}
}
