// Command skellyview runs the shared state registry of the skeleton viewer
// together with its playback loop and HTTP inspector.
package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/skellyview/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var se *errors.Error
		if stderrors.As(err, &se) {
			fmt.Fprint(os.Stderr, se.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skellyview",
		Short: "Shared state and playback for the skeleton viewer",
		Long: `skellyview holds the viewer's shared stores (animation, renderer
handles, fetch trigger), advances playback at the configured frame rate
and serves an inspector for reading and driving the stores from outside
the browser.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		snapshotCmd(),
		initCmd(),
		versionCmd(),
	)

	return rootCmd
}
