package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command; every service runs as a subcommand of it.
var rootCmd = &cobra.Command{
	Use:   "taskhive",
	Short: "taskhive runs the todo platform's services",
	Long: `taskhive builds into a single binary hosting every service of the
platform: the public gateway, the user store, the token issuer, and
the task service. Each runs as its own subcommand and process.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
