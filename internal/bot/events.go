// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heliobot/heliobot/internal/plugin"
	"github.com/heliobot/heliobot/internal/plugin/lua"
)

// deliveryTimeout bounds one event action execution so a looping script
// cannot pin a goroutine forever.
const deliveryTimeout = 5 * time.Second

// subscription binds one event script to its owning plugin's config.
type subscription struct {
	script *lua.EventScript
	config map[string]any
	fired  atomic.Bool // single-shot guard for once subscriptions
}

// Bridge fans gateway events out to subscribed plugin actions. Action
// errors are caught and logged here, matching the containment policy of
// command dispatch: a plugin bug never crashes the process.
type Bridge struct {
	subs map[string][]*subscription
	mu   sync.RWMutex
	wg   sync.WaitGroup
}

// NewBridge creates an empty event bridge.
func NewBridge() *Bridge {
	return &Bridge{
		subs: make(map[string][]*subscription),
	}
}

// Attach registers every event script of p, currying in the plugin's config.
func (b *Bridge) Attach(p *plugin.Plugin) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ev := range p.Events {
		b.subs[ev.Event] = append(b.subs[ev.Event], &subscription{
			script: ev,
			config: p.Config(),
		})
	}
}

// EventNames returns the distinct event names with at least one subscriber.
func (b *Bridge) EventNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs))
	for name := range b.subs {
		names = append(names, name)
	}
	return names
}

// HandleEvent delivers one gateway event to every matching subscription.
// Deliveries run concurrently; subscriptions marked once fire at most one
// time over the process lifetime.
func (b *Bridge) HandleEvent(ctx context.Context, name string, payload map[string]any) {
	b.mu.RLock()
	subs := b.subs[name]
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.script.Once && !sub.fired.CompareAndSwap(false, true) {
			continue
		}
		b.deliverAsync(ctx, sub, payload)
	}
}

// Stop waits for in-flight deliveries to finish.
func (b *Bridge) Stop() {
	b.wg.Wait()
}

func (b *Bridge) deliverAsync(ctx context.Context, sub *subscription, payload map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()

		err := sub.script.Invoke(ctx, payload, sub.config)
		if err == nil {
			EventDeliveries.WithLabelValues(sub.script.Event, sub.script.Plugin, StatusSuccess).Inc()
			return
		}

		EventDeliveries.WithLabelValues(sub.script.Event, sub.script.Plugin, StatusError).Inc()
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			slog.Warn("event action timed out",
				"plugin", sub.script.Plugin,
				"event", sub.script.Event,
				"timeout", deliveryTimeout)
		case errors.Is(err, context.Canceled):
			slog.Debug("event delivery canceled",
				"plugin", sub.script.Plugin,
				"event", sub.script.Event)
		default:
			slog.Error("event action failed",
				"plugin", sub.script.Plugin,
				"event", sub.script.Event,
				"error", err)
		}
	}()
}
