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
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "citadel",
		Short: "A thread-per-core connection-accepting server runtime",
		Long: `Citadel runs a pool of independent accept-loop workers, one pinned
per OS thread, each dispatching inbound connections to per-connection
services. Handler failures are rendered into well-formed responses and
never tear down a worker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// versionCmd prints the build version.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the citadel version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("citadel %s (%s)\n", version, commit)
		},
	}
}
