// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/oops"
)

// Compile-time interface check.
var _ Gateway = (*DiscordGateway)(nil)

// DiscordGateway adapts a discordgo session to the Gateway interface.
type DiscordGateway struct {
	session *discordgo.Session
	baseCtx context.Context
}

// NewDiscordGateway creates a gateway for the given bot token.
func NewDiscordGateway(token string) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, oops.In("bot").Code(CodeLoginFailed).Hint("invalid token format").Wrap(err)
	}
	session.Identify.Intents = discordgo.IntentsAllWithoutPrivileged

	return &DiscordGateway{
		session: session,
		baseCtx: context.Background(),
	}, nil
}

// Open connects to the Discord gateway.
func (g *DiscordGateway) Open(ctx context.Context) error {
	g.baseCtx = ctx
	if err := g.session.Open(); err != nil {
		return oops.In("bot").Code(CodeLoginFailed).Wrap(err)
	}
	return nil
}

// Close disconnects from the gateway.
func (g *DiscordGateway) Close() error {
	return g.session.Close()
}

// OnReady registers fn to run once on the first READY payload.
func (g *DiscordGateway) OnReady(fn func()) {
	g.session.AddHandlerOnce(func(_ *discordgo.Session, _ *discordgo.Ready) {
		fn()
	})
}

// OnInteraction forwards slash-command interactions to fn. Other
// interaction kinds (components, autocomplete) are ignored.
func (g *DiscordGateway) OnInteraction(fn InteractionHandler) {
	g.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		fn(g.baseCtx, g.normalizeInteraction(i))
	})
}

// OnEvent forwards every gateway event to fn with its UPPER_SNAKE name and
// a JSON-shaped payload. A handler taking a bare interface receives all
// events from discordgo's dispatcher.
func (g *DiscordGateway) OnEvent(fn EventHandler) {
	g.session.AddHandler(func(_ *discordgo.Session, e any) {
		name := eventName(e)
		if name == "" {
			return
		}
		fn(g.baseCtx, name, eventPayload(e))
	})
}

// Respond sends the initial interaction response.
func (g *DiscordGateway) Respond(ic *Interaction, r *Reply) error {
	i, ok := ic.raw.(*discordgo.InteractionCreate)
	if !ok {
		return oops.In("bot").With("command", ic.CommandName).New("interaction has no discord payload")
	}
	err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: r.Content,
			Flags:   replyFlags(r),
		},
	})
	if err != nil {
		return oops.In("bot").With("command", ic.CommandName).Wrap(err)
	}
	return nil
}

// Followup sends a follow-up message to an acknowledged interaction.
func (g *DiscordGateway) Followup(ic *Interaction, r *Reply) error {
	i, ok := ic.raw.(*discordgo.InteractionCreate)
	if !ok {
		return oops.In("bot").With("command", ic.CommandName).New("interaction has no discord payload")
	}
	_, err := g.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: r.Content,
		Flags:   replyFlags(r),
	})
	if err != nil {
		return oops.In("bot").With("command", ic.CommandName).Wrap(err)
	}
	return nil
}

// OverwriteCommands bulk-replaces the application's slash commands.
func (g *DiscordGateway) OverwriteCommands(_ context.Context, guildID string, cmds []CommandInfo) error {
	appCmds := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, c := range cmds {
		appCmds = append(appCmds, &discordgo.ApplicationCommand{
			Name:        c.Name,
			Description: c.Description,
		})
	}

	_, err := g.session.ApplicationCommandBulkOverwrite(g.session.State.User.ID, guildID, appCmds)
	if err != nil {
		return oops.In("bot").Code(CodePublishFailed).With("count", len(cmds)).Wrap(err)
	}
	return nil
}

func (g *DiscordGateway) normalizeInteraction(i *discordgo.InteractionCreate) *Interaction {
	data := i.ApplicationCommandData()

	options := make(map[string]any, len(data.Options))
	for _, opt := range data.Options {
		options[opt.Name] = opt.Value
	}

	userID := ""
	switch {
	case i.Member != nil && i.Member.User != nil:
		userID = i.Member.User.ID
	case i.User != nil:
		userID = i.User.ID
	}

	return &Interaction{
		ID:          i.ID,
		CommandName: data.Name,
		Options:     options,
		UserID:      userID,
		ChannelID:   i.ChannelID,
		GuildID:     i.GuildID,
		raw:         i,
	}
}

func replyFlags(r *Reply) discordgo.MessageFlags {
	if r.Ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// eventName derives the gateway event name from the payload type, e.g.
// *discordgo.MessageCreate -> MESSAGE_CREATE.
func eventName(e any) string {
	t := reflect.TypeOf(e)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return ""
	}
	return camelToUpperSnake(t.Name())
}

func camelToUpperSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// eventPayload converts an event struct to a JSON-shaped map so plugin
// scripts can read it without knowing the client library's types.
func eventPayload(e any) map[string]any {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Debug("event payload not serializable", "error", err)
		return map[string]any{}
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return map[string]any{}
	}
	return payload
}
