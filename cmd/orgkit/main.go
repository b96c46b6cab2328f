package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "orgkit",
		Short: "Resilient client for the org management API",
		Long: `Orgkit is a client toolkit for the org management API.

It wraps every request in a resilient data layer:

  • Transparent token refresh with request replay
  • Stale-while-revalidate response caching
  • Optimistic mutations with automatic rollback
  • Live cache invalidation over WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "orgkit.json", "Path to the config file")

	rootCmd.AddCommand(
		serveCmd(),
		loginCmd(&configPath),
		getCmd(&configPath),
		invalidateCmd(&configPath),
		watchCmd(&configPath),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
