// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"context"
	"fmt"
	"sync"
)

// fakeGateway implements Gateway for tests. Failure counters make the first
// N calls of an operation fail, which exercises the retry paths.
type fakeGateway struct {
	mu sync.Mutex

	openFailures    int
	publishFailures int
	respondErr      error
	followupErr     error

	openCalls    int
	publishCalls int
	closeCalls   int

	replies   []Reply
	followups []Reply

	published      []CommandInfo
	publishedGuild string

	readyFn       func()
	interactionFn InteractionHandler
	eventFn       EventHandler
}

func (g *fakeGateway) Open(_ context.Context) error {
	g.mu.Lock()
	g.openCalls++
	fail := g.openCalls <= g.openFailures
	ready := g.readyFn
	g.mu.Unlock()

	if fail {
		return fmt.Errorf("connection refused (attempt %d)", g.openCalls)
	}
	if ready != nil {
		ready()
	}
	return nil
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeCalls++
	return nil
}

func (g *fakeGateway) OnReady(fn func())                { g.mu.Lock(); g.readyFn = fn; g.mu.Unlock() }
func (g *fakeGateway) OnInteraction(fn InteractionHandler) {
	g.mu.Lock()
	g.interactionFn = fn
	g.mu.Unlock()
}
func (g *fakeGateway) OnEvent(fn EventHandler) { g.mu.Lock(); g.eventFn = fn; g.mu.Unlock() }

func (g *fakeGateway) Respond(_ *Interaction, r *Reply) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.respondErr != nil {
		return g.respondErr
	}
	g.replies = append(g.replies, *r)
	return nil
}

func (g *fakeGateway) Followup(_ *Interaction, r *Reply) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.followupErr != nil {
		return g.followupErr
	}
	g.followups = append(g.followups, *r)
	return nil
}

func (g *fakeGateway) OverwriteCommands(_ context.Context, guildID string, cmds []CommandInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.publishCalls++
	if g.publishCalls <= g.publishFailures {
		return fmt.Errorf("rate limited (attempt %d)", g.publishCalls)
	}
	g.published = cmds
	g.publishedGuild = guildID
	return nil
}

func (g *fakeGateway) sentReplies() []Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Reply(nil), g.replies...)
}

func (g *fakeGateway) sentFollowups() []Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Reply(nil), g.followups...)
}
