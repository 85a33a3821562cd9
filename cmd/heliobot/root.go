package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the heliobot CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heliobot",
		Short: "Heliobot - a plugin-driven Discord bot",
		Long: `Heliobot is a Discord bot whose commands and event handlers are
supplied entirely by plugins: directories of Lua scripts described by a
small YAML manifest, discovered at startup.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewPluginsCmd())

	return cmd
}
