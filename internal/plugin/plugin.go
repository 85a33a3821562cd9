// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package plugin

import (
	"github.com/heliobot/heliobot/internal/plugin/lua"
)

// Plugin bundles one discovered directory: its manifest plus the command and
// event scripts that loaded and validated successfully. Plugins are built
// once during discovery and never mutated afterwards.
type Plugin struct {
	Manifest *Manifest
	Commands []*lua.CommandScript
	Events   []*lua.EventScript
}

// Name returns the plugin's manifest name.
func (p *Plugin) Name() string {
	return p.Manifest.Name
}

// Config returns the plugin's config mapping. Never nil.
func (p *Plugin) Config() map[string]any {
	if p.Manifest.Config == nil {
		return map[string]any{}
	}
	return p.Manifest.Config
}
