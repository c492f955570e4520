// Package cli wires the single cccrawl entry point: a long-running
// process with no subcommands beyond version reporting. Config comes
// entirely from the environment; there are no CLI flags to parse.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cccrawl/crawler/internal/build"
)

// runFunc is the process entry point, injected by cmd/cccrawl/main.go.
// Kept as a package variable (rather than a direct import of the wiring
// package) to avoid an import cycle between cli and the composition
// root.
var runFunc func(ctx context.Context) error

// SetRunFunc registers the function Execute invokes for the root
// command. main calls this once before Execute.
func SetRunFunc(f func(ctx context.Context) error) {
	runFunc = f
}

var rootCmd = &cobra.Command{
	Use:   "cccrawl",
	Short: "Multi-tenant competitive-programming submission crawler.",
	Long: `cccrawl polls registered Codeforces and CSES integrations for new
submissions, enriches accepted ones with their source code, and persists
them to the document store.

It takes no flags: all configuration is read from the environment
(COSMOS_ENDPOINT, COSMOS_KEY, ENV_NAME, CSES_USERNAME, CSES_PASSWORD).
It runs until terminated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFunc == nil {
			return fmt.Errorf("cli: no run func registered")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return runFunc(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and exit.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.FullVersion())
	},
}

// Execute adds all child commands to the root command and runs it. This
// is called by main.main(). It only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// RootCommand returns the root cobra command, for tests that need to
// drive Execute's command tree directly without going through main.
func RootCommand() *cobra.Command {
	return rootCmd
}
