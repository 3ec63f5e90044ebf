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
	rootCmd := &cobra.Command{
		Use:   "dispatchkit",
		Short: "Path dispatch engine for routing requests to actions",
		Long: `dispatchkit routes slash-separated paths to registered actions
through a segment trie with wildcard capture, a two-tier dispatch
cache, interceptor chains, and string result resolution.

The serve command loads a routes file and exposes the router over
HTTP and WebSocket.`,
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
