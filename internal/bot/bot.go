// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/heliobot/heliobot/internal/plugin"
)

// Retry policy for the login handshake and the remote command replace.
const (
	retryBaseDelay  = 500 * time.Millisecond
	retryMaxAttempt = 5
)

// Bot owns the gateway, drives one-time startup sequencing, and holds the
// discovered plugins for the process lifetime.
type Bot struct {
	gw         Gateway
	loader     *plugin.Loader
	registry   *Registry
	dispatcher *Dispatcher
	bridge     *Bridge
	guildID    string

	plugins []*plugin.Plugin

	ready     chan struct{}
	readyOnce sync.Once

	// retryBase is the initial backoff delay, shortened in tests.
	retryBase time.Duration
}

// Option configures the Bot.
type Option func(*Bot)

// WithGuildID scopes command registration to one guild instead of global.
// Guild-scoped commands propagate immediately, which is what you want in
// development.
func WithGuildID(id string) Option {
	return func(b *Bot) {
		b.guildID = id
	}
}

// New creates a bot over the given gateway and plugin loader.
func New(gw Gateway, loader *plugin.Loader, opts ...Option) (*Bot, error) {
	registry := NewRegistry()
	dispatcher, err := NewDispatcher(registry, gw)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		gw:         gw,
		loader:     loader,
		registry:   registry,
		dispatcher: dispatcher,
		bridge:     NewBridge(),
		ready:      make(chan struct{}),
		retryBase:  retryBaseDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Start runs the startup sequence: discover plugins, merge commands into
// the registry, attach event subscriptions, connect, and publish the merged
// command set once the gateway is ready. Login and publish failures are
// startup-fatal.
func (b *Bot) Start(ctx context.Context) error {
	b.plugins = b.loader.Discover(ctx)

	for _, p := range b.plugins {
		for _, cmd := range p.Commands {
			b.registry.Register(Entry{
				Name:        cmd.Name,
				Description: cmd.Description,
				Source:      p.Name(),
				Script:      cmd,
				Config:      p.Config(),
			})
		}
		b.bridge.Attach(p)
	}

	slog.Info("plugins merged",
		"plugins", len(b.plugins),
		"commands", b.registry.Len(),
		"events", len(b.bridge.EventNames()))

	b.gw.OnEvent(b.bridge.HandleEvent)
	b.gw.OnInteraction(b.dispatcher.HandleInteraction)
	b.gw.OnReady(func() {
		b.readyOnce.Do(func() { close(b.ready) })
	})

	if err := b.open(ctx); err != nil {
		return err
	}

	select {
	case <-b.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := b.publishCommands(ctx); err != nil {
		if closeErr := b.gw.Close(); closeErr != nil {
			slog.Warn("failed to close gateway after publish failure", "error", closeErr)
		}
		return err
	}

	slog.Info("bot ready", "commands", b.registry.Len())
	return nil
}

// Stop waits for in-flight event deliveries and closes the gateway.
func (b *Bot) Stop(_ context.Context) error {
	b.bridge.Stop()
	if err := b.gw.Close(); err != nil {
		return oops.In("bot").Hint("gateway close failed").Wrap(err)
	}
	return nil
}

// Plugins returns the discovered plugins. Valid after Start.
func (b *Bot) Plugins() []*plugin.Plugin {
	return b.plugins
}

// Registry returns the merged command registry.
func (b *Bot) Registry() *Registry {
	return b.registry
}

func (b *Bot) open(ctx context.Context) error {
	backoff := retry.WithMaxRetries(retryMaxAttempt, retry.NewExponential(b.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := b.gw.Open(ctx); err != nil {
			slog.Warn("gateway login failed, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.In("bot").Code(CodeLoginFailed).Hint("gateway login failed").Wrap(err)
	}
	return nil
}

func (b *Bot) publishCommands(ctx context.Context) error {
	infos := b.registry.CommandInfos()

	backoff := retry.WithMaxRetries(retryMaxAttempt, retry.NewExponential(b.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := b.gw.OverwriteCommands(ctx, b.guildID, infos); err != nil {
			slog.Warn("command publish failed, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.In("bot").Code(CodePublishFailed).With("count", len(infos)).Wrap(err)
	}

	slog.Info("published command set", "count", len(infos), "guild_id", b.guildID)
	return nil
}
