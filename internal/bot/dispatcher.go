// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/heliobot/heliobot/internal/plugin/lua"
)

var tracer = otel.Tracer("heliobot/bot")

// ErrNilRegistry is returned when a dispatcher is built without a registry.
var ErrNilRegistry = errors.New("bot: registry must not be nil")

// ErrNilGateway is returned when a dispatcher is built without a gateway.
var ErrNilGateway = errors.New("bot: gateway must not be nil")

// Dispatcher routes inbound interactions to the matching command script and
// contains action failures at this boundary: the invoking user gets one
// generic ephemeral notice, the process keeps serving.
type Dispatcher struct {
	registry *Registry
	gw       Gateway
}

// NewDispatcher creates a dispatcher over the given registry and gateway.
func NewDispatcher(registry *Registry, gw Gateway) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if gw == nil {
		return nil, ErrNilGateway
	}
	return &Dispatcher{registry: registry, gw: gw}, nil
}

// HandleInteraction executes one inbound invocation. Unknown command names
// are logged and dropped with no user-visible reply.
func (d *Dispatcher) HandleInteraction(ctx context.Context, ic *Interaction) {
	requestID := ulid.Make().String()

	entry, ok := d.registry.Get(ic.CommandName)
	if !ok {
		slog.Debug("dropping unregistered command",
			"command", ic.CommandName,
			"request_id", requestID)
		recordDispatch(ic.CommandName, "", StatusNotFound)
		return
	}

	ctx, span := tracer.Start(ctx, "command.dispatch")
	span.SetAttributes(
		attribute.String("command.name", ic.CommandName),
		attribute.String("command.plugin", entry.Source),
		attribute.String("request.id", requestID),
	)
	defer span.End()

	input := lua.CommandInput{
		Name:      ic.CommandName,
		Options:   ic.Options,
		UserID:    ic.UserID,
		ChannelID: ic.ChannelID,
		GuildID:   ic.GuildID,
	}

	start := time.Now()
	reply, err := entry.Script.Invoke(ctx, input, entry.Config)
	recordDuration(ic.CommandName, entry.Source, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("command action failed",
			"command", ic.CommandName,
			"plugin", entry.Source,
			"request_id", requestID,
			"error", err)
		recordDispatch(ic.CommandName, entry.Source, StatusError)
		d.sendFailureNotice(ic)
		return
	}

	if reply != nil {
		if err := d.gw.Respond(ic, &Reply{Content: reply.Content, Ephemeral: reply.Ephemeral}); err != nil {
			slog.Error("failed to send command reply",
				"command", ic.CommandName,
				"request_id", requestID,
				"error", err)
		} else {
			ic.acknowledged = true
		}
	}

	recordDispatch(ic.CommandName, entry.Source, StatusSuccess)
}

// sendFailureNotice reports a generic ephemeral failure to the invoking
// user: a follow-up if the interaction was already acknowledged, a direct
// response otherwise.
func (d *Dispatcher) sendFailureNotice(ic *Interaction) {
	notice := &Reply{Content: failureNotice, Ephemeral: true}

	var err error
	if ic.acknowledged {
		err = d.gw.Followup(ic, notice)
	} else {
		err = d.gw.Respond(ic, notice)
		if err == nil {
			ic.acknowledged = true
		}
	}
	if err != nil {
		slog.Warn("failed to deliver failure notice",
			"command", ic.CommandName,
			"error", err)
	}
}
