package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/cacheproxy/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	output  string
)

var rootCmd = &cobra.Command{
	Use:   "cacheproxy",
	Short: "Caching HTTP forward proxy and file share",
	Long: `cacheproxy accepts HTTP/1.1 connections and either serves files from its
local store or forwards the request to the origin server named in the request.

  - PUT /name and POST /name store the request body as "name"
  - GET /name downloads a stored file, GET /list lists them
  - other GET requests are proxied and successful responses cached (LRU,
    10 MiB per entry, 200 MiB in total by default)
  - POST requests with an absolute URI are forwarded verbatim`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the status for its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format for command results (text, json)")
}
