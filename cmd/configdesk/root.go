package main

import (
	"os"

	"github.com/spf13/cobra"

	"configdesk/internal/platform"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "configdesk",
	Short: "Form editor and store for a JSON configuration document",
	Long: `configdesk keeps one JSON configuration document and serves a browser
form for editing it.

Without a subcommand it runs the server (same as "configdesk serve").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			return os.Setenv(platform.ConfigFileEnv, configFile)
		}
		return nil
	},
	RunE: runServe,
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML config file (overrides $"+platform.ConfigFileEnv+")")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
