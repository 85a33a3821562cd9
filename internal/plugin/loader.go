package plugin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/heliobot/heliobot/internal/plugin/lua"
)

// Subdirectories searched inside each plugin directory. An absent directory
// means the plugin simply contributes no commands or events.
const (
	CommandsDir = "commands"
	EventsDir   = "events"
)

// Loader discovers plugins beneath a root directory.
type Loader struct {
	root     string
	host     *lua.ScriptHost
	disabled []glob.Glob
}

// LoaderOption configures the Loader.
type LoaderOption func(*Loader)

// WithDisabledPatterns skips plugin directories whose name matches any of
// the given glob patterns. Invalid patterns are logged and ignored.
func WithDisabledPatterns(patterns []string) LoaderOption {
	return func(l *Loader) {
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				slog.Warn("ignoring invalid disabled-plugin pattern",
					"pattern", p,
					"error", err)
				continue
			}
			l.disabled = append(l.disabled, g)
		}
	}
}

// NewLoader creates a plugin loader rooted at root.
func NewLoader(root string, host *lua.ScriptHost, opts ...LoaderOption) *Loader {
	l := &Loader{
		root: root,
		host: host,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discover walks the plugins root and loads every plugin directory. One bad
// plugin never disables the others: per-directory failures are logged and
// skipped. A missing or unreadable root is logged and yields an empty
// result; Discover never fails.
//
// os.ReadDir returns entries sorted by filename, which pins merge order and
// duplicate-command resolution downstream.
func (l *Loader) Discover(ctx context.Context) []*Plugin {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read plugins root", "root", l.root, "error", err)
		}
		return nil
	}

	var plugins []*Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if l.isDisabled(entry.Name()) {
			slog.Info("plugin disabled by configuration", "plugin", entry.Name())
			continue
		}

		p := l.loadDir(ctx, entry.Name())
		if p == nil {
			PluginLoads.WithLabelValues(StatusSkipped).Inc()
			continue
		}
		PluginLoads.WithLabelValues(StatusLoaded).Inc()
		plugins = append(plugins, p)

		slog.Info("loaded plugin",
			"plugin", p.Name(),
			"version", p.Manifest.Version,
			"commands", len(p.Commands),
			"events", len(p.Events))
	}

	return plugins
}

// loadDir assembles one Plugin from its directory. Returns nil when the
// plugin must be skipped. A panicking script loader is contained here so a
// single plugin cannot abort the discovery pass.
func (l *Loader) loadDir(ctx context.Context, name string) (p *Plugin) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while loading plugin", "plugin", name, "panic", r)
			p = nil
		}
	}()

	dir := filepath.Join(l.root, name)
	manifest := LoadManifest(dir, name)

	return &Plugin{
		Manifest: manifest,
		Commands: l.host.LoadCommandDir(ctx, manifest.Name, filepath.Join(dir, CommandsDir)),
		Events:   l.host.LoadEventDir(ctx, manifest.Name, filepath.Join(dir, EventsDir)),
	}
}

func (l *Loader) isDisabled(name string) bool {
	for _, g := range l.disabled {
		if g.Match(name) {
			return true
		}
	}
	return false
}
