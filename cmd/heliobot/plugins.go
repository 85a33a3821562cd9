// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/heliobot/heliobot/internal/config"
	"github.com/heliobot/heliobot/internal/logging"
	"github.com/heliobot/heliobot/internal/plugin"
	"github.com/heliobot/heliobot/internal/plugin/lua"
)

// NewPluginsCmd creates the plugins subcommand group.
func NewPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect and validate plugins without starting the bot",
	}

	cmd.PersistentFlags().String("plugins-dir", "", "plugins root directory (default: plugins)")
	cmd.PersistentFlags().String("log-format", "", "log format: json or text (default: json)")

	cmd.AddCommand(newPluginsListCmd())
	cmd.AddCommand(newPluginsValidateCmd())
	cmd.AddCommand(newPluginsSchemaCmd())

	return cmd
}

func newPluginsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Discover plugins and show what each contributes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			logging.SetDefault("heliobot", version, cfg.LogFormat)

			loader := plugin.NewLoader(cfg.PluginsDir, lua.NewScriptHost())
			plugins := loader.Discover(cmd.Context())

			if len(plugins) == 0 {
				cmd.Println("no plugins found")
				return nil
			}

			for _, p := range plugins {
				cmd.Printf("%s %s - %s\n", p.Name(), p.Manifest.Version, p.Manifest.Description)
				for _, c := range p.Commands {
					cmd.Printf("  command /%s: %s\n", c.Name, c.Description)
				}
				for _, e := range p.Events {
					once := ""
					if e.Once {
						once = " (once)"
					}
					cmd.Printf("  event %s%s\n", e.Event, once)
				}
			}
			return nil
		},
	}
}

func newPluginsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Strictly validate every plugin manifest and script",
		Long: `Validates all plugin manifests against the manifest schema and loads
every command and event script. Does NOT connect to Discord.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch plugin errors early:
  heliobot plugins validate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			logging.SetDefault("heliobot", version, cfg.LogFormat)

			return runPluginsValidate(cmd, cfg.PluginsDir)
		},
	}
}

func runPluginsValidate(cmd *cobra.Command, root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read plugins root %s: %w", root, err)
	}

	host := lua.NewScriptHost()
	var failures []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		dir := filepath.Join(root, name)

		failures = append(failures, validateManifest(dir, name)...)
		failures = append(failures, validateScripts(cmd, host, dir, name)...)
	}

	if len(failures) > 0 {
		for _, f := range failures {
			slog.Error("plugin validation failed", "detail", f)
		}
		return fmt.Errorf("validation failed: %d problem(s) found", len(failures))
	}

	slog.Info("all plugins valid")
	return nil
}

func validateManifest(dir, name string) []string {
	data, err := os.ReadFile(filepath.Clean(filepath.Join(dir, plugin.ManifestFilename)))
	if os.IsNotExist(err) {
		// Lenient runtime policy allows a missing manifest; strict validation
		// only checks files that exist.
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("%s: unreadable manifest: %v", name, err)}
	}

	var failures []string
	if err := plugin.ValidateSchema(data); err != nil {
		failures = append(failures, fmt.Sprintf("%s: %s", name, plugin.FormatSchemaError(err)))
	}
	if _, err := plugin.ParseManifest(data); err != nil {
		failures = append(failures, fmt.Sprintf("%s: %v", name, err))
	}
	return failures
}

func validateScripts(cmd *cobra.Command, host *lua.ScriptHost, dir, name string) []string {
	var failures []string

	commandsDir := filepath.Join(dir, plugin.CommandsDir)
	for _, path := range luaFiles(commandsDir) {
		if _, err := host.LoadCommand(cmd.Context(), name, path); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s: %v", name, path, err))
		}
	}

	eventsDir := filepath.Join(dir, plugin.EventsDir)
	for _, path := range luaFiles(eventsDir) {
		if _, err := host.LoadEvent(cmd.Context(), name, path); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s: %v", name, path, err))
		}
	}
	return failures
}

func luaFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != lua.ScriptExt {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths
}

func newPluginsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the plugin manifest JSON schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := plugin.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}
