// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/heliobot/heliobot/internal/plugin/lua"
)

// Entry is a registered command: the script plus the owning plugin's
// identity and config mapping.
type Entry struct {
	Name        string
	Description string
	Source      string // owning plugin name
	Script      *lua.CommandScript
	Config      map[string]any
}

// Registry manages command registration and lookup.
// It is thread-safe, though after startup it is only read.
type Registry struct {
	commands map[string]Entry
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Entry),
	}
}

// Register adds a command to the registry. If a command with the same name
// exists, it is overwritten and a warning is logged: last-loaded wins, and
// load order is pinned by the loader's lexical directory order.
func (r *Registry) Register(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.commands[entry.Name]; ok {
		slog.Warn("command conflict: overwriting existing command",
			"command", entry.Name,
			"previous_source", existing.Source,
			"new_source", entry.Source)
	}

	r.commands[entry.Name] = entry
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.commands[name]
	return entry, ok
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// CommandInfos returns the publishable name/description set, sorted by name
// so the remote replace operation is deterministic.
func (r *Registry) CommandInfos() []CommandInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]CommandInfo, 0, len(r.commands))
	for _, e := range r.commands {
		infos = append(infos, CommandInfo{Name: e.Name, Description: e.Description})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
