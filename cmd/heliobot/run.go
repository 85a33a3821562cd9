// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/heliobot/heliobot/internal/bot"
	"github.com/heliobot/heliobot/internal/config"
	"github.com/heliobot/heliobot/internal/logging"
	"github.com/heliobot/heliobot/internal/observability"
	"github.com/heliobot/heliobot/internal/plugin"
	"github.com/heliobot/heliobot/internal/plugin/lua"
	"github.com/heliobot/heliobot/pkg/errutil"
)

// ObservabilityServer abstracts the metrics server for testing.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// RunDeps holds injectable dependencies for the run command.
// If a field is nil, the default implementation is used.
type RunDeps struct {
	GatewayFactory             func(token string) (bot.Gateway, error)
	ObservabilityServerFactory func(addr string, rc observability.ReadinessChecker) ObservabilityServer
}

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		Long: `Start the bot: discover plugins, connect to Discord, publish the
merged command set, and dispatch interactions and events until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithDeps(cmd.Context(), cmd.Flags(), nil)
		},
	}

	cmd.Flags().String("token", "", "bot token (or HELIO_TOKEN / DISCORD_TOKEN env)")
	cmd.Flags().String("plugins-dir", "", "plugins root directory (default: plugins)")
	cmd.Flags().String("guild-id", "", "register commands in one guild instead of globally")
	cmd.Flags().String("log-format", "", "log format: json or text (default: json)")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (default: 127.0.0.1:9100, 'off' = disabled)")
	cmd.Flags().StringSlice("disabled-plugins", nil, "glob patterns of plugin directories to skip")

	return cmd
}

// runWithDeps starts the bot with injectable dependencies.
func runWithDeps(ctx context.Context, flags *pflag.FlagSet, deps *RunDeps) error {
	if deps == nil {
		deps = &RunDeps{}
	}
	if deps.GatewayFactory == nil {
		deps.GatewayFactory = func(token string) (bot.Gateway, error) {
			return bot.NewDiscordGateway(token)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, rc observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, rc)
		}
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	logging.SetDefault("heliobot", version, cfg.LogFormat)

	if err := cfg.RequireToken(); err != nil {
		return err
	}

	slog.Info("starting heliobot",
		"plugins_dir", cfg.PluginsDir,
		"log_format", cfg.LogFormat,
	)

	gw, err := deps.GatewayFactory(cfg.Token)
	if err != nil {
		errutil.LogError(slog.Default(), "failed to create gateway", err)
		return err
	}

	loader := plugin.NewLoader(cfg.PluginsDir, lua.NewScriptHost(),
		plugin.WithDisabledPatterns(cfg.DisabledPlugins))

	b, err := bot.New(gw, loader, bot.WithGuildID(cfg.GuildID))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool

	var obsServer ObservabilityServer
	if cfg.MetricsAddr != "" && cfg.MetricsAddr != "off" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, ready.Load)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			errutil.LogError(slog.Default(), "failed to start observability server", err)
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	if err := b.Start(ctx); err != nil {
		errutil.LogError(slog.Default(), "startup failed", err)
		stopObservability(obsServer)
		return err
	}
	ready.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := b.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping bot", "error", err)
	}
	stopObservability(obsServer)

	slog.Info("shutdown complete")
	return nil
}

func stopObservability(obsServer ObservabilityServer) {
	if obsServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors watches a server's error channel and cancels the
// context on error so a failed server triggers graceful shutdown. It exits
// when an error arrives, the channel closes, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
