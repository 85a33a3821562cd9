// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/heliobot/heliobot/internal/bot"
	"github.com/heliobot/heliobot/internal/plugin"
	"github.com/heliobot/heliobot/internal/plugin/lua"
)

// capturingGateway implements bot.Gateway in-process: it records published
// commands and outbound replies, and exposes the registered handlers so
// specs can inject interactions and events.
type capturingGateway struct {
	mu sync.Mutex

	opened bool
	closed bool

	readyFn       func()
	interactionFn bot.InteractionHandler
	eventFn       bot.EventHandler

	published []bot.CommandInfo
	replies   []bot.Reply
}

func (g *capturingGateway) Open(_ context.Context) error {
	g.mu.Lock()
	g.opened = true
	ready := g.readyFn
	g.mu.Unlock()
	if ready != nil {
		ready()
	}
	return nil
}

func (g *capturingGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *capturingGateway) OnReady(fn func()) { g.mu.Lock(); g.readyFn = fn; g.mu.Unlock() }

func (g *capturingGateway) OnInteraction(fn bot.InteractionHandler) {
	g.mu.Lock()
	g.interactionFn = fn
	g.mu.Unlock()
}

func (g *capturingGateway) OnEvent(fn bot.EventHandler) {
	g.mu.Lock()
	g.eventFn = fn
	g.mu.Unlock()
}

func (g *capturingGateway) Respond(_ *bot.Interaction, r *bot.Reply) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, *r)
	return nil
}

func (g *capturingGateway) Followup(_ *bot.Interaction, r *bot.Reply) error {
	return g.Respond(nil, r)
}

func (g *capturingGateway) OverwriteCommands(_ context.Context, _ string, cmds []bot.CommandInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.published = cmds
	return nil
}

func (g *capturingGateway) fireInteraction(ctx context.Context, ic *bot.Interaction) {
	g.mu.Lock()
	fn := g.interactionFn
	g.mu.Unlock()
	fn(ctx, ic)
}

func (g *capturingGateway) fireEvent(ctx context.Context, name string, payload map[string]any) {
	g.mu.Lock()
	fn := g.eventFn
	g.mu.Unlock()
	fn(ctx, name, payload)
}

func (g *capturingGateway) sentReplies() []bot.Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]bot.Reply(nil), g.replies...)
}

const greetManifest = `name: greet
version: 1.0.0
description: Greets people on command.
config:
  greeting: Hello
`

const helloCommand = `
return {
  name = "hello",
  description = "Say hello to someone",
  action = function(ctx, config)
    local who = ctx.options.name or "world"
    return { content = config.greeting .. ", " .. who .. "!" }
  end,
}
`

const readyEvent = `
return {
  event = "READY",
  once = true,
  action = function(event, config)
    helio.log("info", "greet plugin online")
  end,
}
`

var _ = Describe("Bot lifecycle", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		root   string
		gw     *capturingGateway
		b      *bot.Bot
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())

		root = GinkgoT().TempDir()
		dir := filepath.Join(root, "greet")
		Expect(os.MkdirAll(filepath.Join(dir, "commands"), 0o750)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(dir, "events"), 0o750)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "plugin.yaml"), []byte(greetManifest), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "commands", "hello.lua"), []byte(helloCommand), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "events", "ready.lua"), []byte(readyEvent), 0o600)).To(Succeed())

		gw = &capturingGateway{}
		loader := plugin.NewLoader(root, lua.NewScriptHost())

		var err error
		b, err = bot.New(gw, loader, bot.WithGuildID("guild-1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Start(ctx)).To(Succeed())
	})

	AfterEach(func() {
		Expect(b.Stop(context.Background())).To(Succeed())
		cancel()
	})

	It("publishes the merged command set on startup", func() {
		Expect(gw.opened).To(BeTrue())
		Expect(gw.published).To(HaveLen(1))
		Expect(gw.published[0].Name).To(Equal("hello"))
		Expect(gw.published[0].Description).To(Equal("Say hello to someone"))
	})

	It("dispatches a slash command to the plugin action", func() {
		gw.fireInteraction(ctx, &bot.Interaction{
			ID:          "ic-1",
			CommandName: "hello",
			Options:     map[string]any{"name": "ada"},
		})

		replies := gw.sentReplies()
		Expect(replies).To(HaveLen(1))
		Expect(replies[0].Content).To(Equal("Hello, ada!"))
	})

	It("applies the manifest config to command actions", func() {
		gw.fireInteraction(ctx, &bot.Interaction{CommandName: "hello"})

		replies := gw.sentReplies()
		Expect(replies).To(HaveLen(1))
		Expect(replies[0].Content).To(Equal("Hello, world!"))
	})

	It("drops unknown commands without replying", func() {
		gw.fireInteraction(ctx, &bot.Interaction{CommandName: "nope"})
		Expect(gw.sentReplies()).To(BeEmpty())
	})

	It("delivers a once event exactly one time", func() {
		counter := bot.EventDeliveries.WithLabelValues("READY", "greet", "success")
		before := testutil.ToFloat64(counter)

		gw.fireEvent(ctx, "READY", map[string]any{"session_id": "s1"})
		gw.fireEvent(ctx, "READY", map[string]any{"session_id": "s2"})

		Eventually(func() float64 {
			return testutil.ToFloat64(counter)
		}).Should(Equal(before + 1))
	})
})
