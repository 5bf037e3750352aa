// Package app wires the dispatchd command-line surface: starting a
// dispatch process and inspecting its cron configuration.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:               "dispatchd",
	DisableAutoGenTag: true,
	Short:             "Run and inspect a gamemesh dispatch process",
}

// NewRootCmd builds the dispatchd root command.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().String("config", "server.toml", "path to the server config file")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(cronsCmd)
	return rootCmd
}
