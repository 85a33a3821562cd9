// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

// Package bot owns the chat gateway, the command registry, and dispatch.
package bot

import (
	"context"
)

// Interaction is one inbound slash-command invocation, normalized away from
// the underlying client library.
type Interaction struct {
	ID          string
	CommandName string
	Options     map[string]any
	UserID      string
	ChannelID   string
	GuildID     string

	// acknowledged tracks whether a response was already sent, which decides
	// between a direct response and a follow-up for failure notices.
	acknowledged bool

	// raw holds the client library's interaction object for responding.
	raw any
}

// Reply is an outbound message for an interaction.
type Reply struct {
	Content   string
	Ephemeral bool
}

// CommandInfo is the name/description pair published to the platform.
type CommandInfo struct {
	Name        string
	Description string
}

// InteractionHandler receives inbound slash-command invocations.
type InteractionHandler func(ctx context.Context, ic *Interaction)

// EventHandler receives gateway events by UPPER_SNAKE name with a
// JSON-shaped payload.
type EventHandler func(ctx context.Context, name string, payload map[string]any)

// Gateway abstracts the chat platform connection. The production
// implementation wraps discordgo; tests substitute a fake.
type Gateway interface {
	// Open establishes the gateway connection and begins delivering events.
	Open(ctx context.Context) error
	// Close tears down the connection.
	Close() error

	// OnReady registers fn to run once the gateway signals readiness.
	OnReady(fn func())
	// OnInteraction registers the single inbound-invocation handler.
	OnInteraction(fn InteractionHandler)
	// OnEvent registers the single catch-all event handler.
	OnEvent(fn EventHandler)

	// Respond sends the initial response to an interaction.
	Respond(ic *Interaction, r *Reply) error
	// Followup sends an additional message after the initial response.
	Followup(ic *Interaction, r *Reply) error

	// OverwriteCommands replaces the platform's registered command set with
	// cmds. This is a total replace, not an incremental diff. An empty
	// guildID registers globally.
	OverwriteCommands(ctx context.Context, guildID string, cmds []CommandInfo) error
}
