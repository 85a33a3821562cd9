// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package lua

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// ScriptExt is the recognized extension for plugin scripts.
const ScriptExt = ".lua"

// CommandInput carries the interaction data handed to a command action.
type CommandInput struct {
	Name      string
	Options   map[string]any
	UserID    string
	ChannelID string
	GuildID   string
}

// Reply is what a command action asks the bot to send back.
type Reply struct {
	Content   string
	Ephemeral bool
}

// ScriptHost loads and executes plugin scripts. Each execution runs in a
// fresh sandboxed state, so scripts share no Lua-level state between calls.
type ScriptHost struct {
	factory *StateFactory
}

// NewScriptHost creates a script host with the default sandbox.
func NewScriptHost() *ScriptHost {
	return &ScriptHost{factory: NewStateFactory()}
}

// CommandScript is a validated command module. Name and Description come
// from the script's returned table; the action re-evaluates the source in a
// fresh state on every invocation.
type CommandScript struct {
	Plugin      string
	Name        string
	Description string
	Path        string
	source      string
	host        *ScriptHost
}

// EventScript is a validated event module.
type EventScript struct {
	Plugin string
	Event  string
	Once   bool
	Path   string
	source string
	host   *ScriptHost
}

// LoadCommand reads, evaluates, and validates a command script. Any failure
// (read, syntax, runtime, shape) returns an error; callers are expected to
// log and skip, never abort discovery.
func (h *ScriptHost) LoadCommand(ctx context.Context, pluginName, path string) (*CommandScript, error) {
	source, ret, cleanup, err := h.evalFile(ctx, pluginName, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if !IsCommand(ret) {
		return nil, oops.In("lua").
			Code(CodeInvalidShape).
			With("plugin", pluginName).
			With("path", path).
			New("script does not export a command (need string name, string description, function action)")
	}

	t := ret.(*lua.LTable)
	return &CommandScript{
		Plugin:      pluginName,
		Name:        string(t.RawGetString("name").(lua.LString)),
		Description: string(t.RawGetString("description").(lua.LString)),
		Path:        path,
		source:      source,
		host:        h,
	}, nil
}

// LoadEvent reads, evaluates, and validates an event script.
func (h *ScriptHost) LoadEvent(ctx context.Context, pluginName, path string) (*EventScript, error) {
	source, ret, cleanup, err := h.evalFile(ctx, pluginName, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if !IsEvent(ret) {
		return nil, oops.In("lua").
			Code(CodeInvalidShape).
			With("plugin", pluginName).
			With("path", path).
			New("script does not export an event (need string event, optional bool once, function action)")
	}

	t := ret.(*lua.LTable)
	once := false
	if b, ok := t.RawGetString("once").(lua.LBool); ok {
		once = bool(b)
	}
	return &EventScript{
		Plugin: pluginName,
		Event:  string(t.RawGetString("event").(lua.LString)),
		Once:   once,
		Path:   path,
		source: source,
		host:   h,
	}, nil
}

// LoadCommandDir loads every *.lua file directly under dir, sorted lexically
// for reproducible order. Scripts that fail to load or validate are logged
// and excluded. A missing or unreadable directory yields an empty slice.
func (h *ScriptHost) LoadCommandDir(ctx context.Context, pluginName, dir string) []*CommandScript {
	var commands []*CommandScript
	for _, path := range scriptFiles(dir) {
		cmd, err := h.LoadCommand(ctx, pluginName, path)
		if err != nil {
			slog.Warn("skipping invalid command script",
				"plugin", pluginName,
				"path", path,
				"error", err)
			continue
		}
		commands = append(commands, cmd)
	}
	return commands
}

// LoadEventDir is the event-side counterpart of LoadCommandDir.
func (h *ScriptHost) LoadEventDir(ctx context.Context, pluginName, dir string) []*EventScript {
	var events []*EventScript
	for _, path := range scriptFiles(dir) {
		ev, err := h.LoadEvent(ctx, pluginName, path)
		if err != nil {
			slog.Warn("skipping invalid event script",
				"plugin", pluginName,
				"path", path,
				"error", err)
			continue
		}
		events = append(events, ev)
	}
	return events
}

// Invoke runs the command action with the interaction input and the owning
// plugin's config. A nil reply means the action handled everything itself.
func (s *CommandScript) Invoke(ctx context.Context, in CommandInput, config map[string]any) (*Reply, error) {
	L, action, err := s.host.prepareAction(ctx, s.Plugin, s.Path, s.source)
	if err != nil {
		return nil, err
	}
	defer L.Close()

	inputTable := L.NewTable()
	L.SetField(inputTable, "name", lua.LString(in.Name))
	L.SetField(inputTable, "options", toLValue(L, in.Options))
	L.SetField(inputTable, "user_id", lua.LString(in.UserID))
	L.SetField(inputTable, "channel_id", lua.LString(in.ChannelID))
	L.SetField(inputTable, "guild_id", lua.LString(in.GuildID))

	if err := L.CallByParam(lua.P{
		Fn:      action,
		NRet:    1,
		Protect: true,
	}, inputTable, toLValue(L, config)); err != nil {
		return nil, oops.In("lua").
			Code(CodeActionFailed).
			With("plugin", s.Plugin).
			With("command", s.Name).
			Wrap(err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return decodeReply(ret), nil
}

// Invoke runs the event action with the event payload and the owning
// plugin's config. Event actions have no reply channel; their return value
// is ignored.
func (s *EventScript) Invoke(ctx context.Context, payload map[string]any, config map[string]any) error {
	L, action, err := s.host.prepareAction(ctx, s.Plugin, s.Path, s.source)
	if err != nil {
		return err
	}
	defer L.Close()

	eventTable := L.NewTable()
	L.SetField(eventTable, "name", lua.LString(s.Event))
	L.SetField(eventTable, "payload", toLValue(L, payload))

	if err := L.CallByParam(lua.P{
		Fn:      action,
		NRet:    0,
		Protect: true,
	}, eventTable, toLValue(L, config)); err != nil {
		return oops.In("lua").
			Code(CodeActionFailed).
			With("plugin", s.Plugin).
			With("event", s.Event).
			Wrap(err)
	}
	return nil
}

// evalFile reads path and evaluates it in a fresh sandboxed state, returning
// the source, the script's returned value, and a cleanup closing the state.
func (h *ScriptHost) evalFile(ctx context.Context, pluginName, path string) (string, lua.LValue, func(), error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", nil, nil, oops.In("lua").
			Code(CodeLoadFailed).
			With("plugin", pluginName).
			With("path", path).
			Hint("failed to read script").
			Wrap(err)
	}
	source := string(data)

	L, err := h.factory.NewState(ctx)
	if err != nil {
		return "", nil, nil, oops.In("lua").
			Code(CodeLoadFailed).
			With("plugin", pluginName).
			Wrap(err)
	}

	ret, err := evalChunk(L, path, source)
	if err != nil {
		L.Close()
		return "", nil, nil, oops.In("lua").
			Code(CodeLoadFailed).
			With("plugin", pluginName).
			With("path", path).
			Hint("script failed to evaluate").
			Wrap(err)
	}
	return source, ret, L.Close, nil
}

// prepareAction re-evaluates source in a fresh state with host functions
// registered and returns the action function. The caller owns the state.
func (h *ScriptHost) prepareAction(ctx context.Context, pluginName, path, source string) (*lua.LState, lua.LValue, error) {
	L, err := h.factory.NewState(ctx)
	if err != nil {
		return nil, nil, oops.In("lua").Code(CodeActionFailed).With("plugin", pluginName).Wrap(err)
	}
	registerHostFunctions(L, pluginName)

	ret, err := evalChunk(L, path, source)
	if err != nil {
		L.Close()
		return nil, nil, oops.In("lua").
			Code(CodeActionFailed).
			With("plugin", pluginName).
			With("path", path).
			Wrap(err)
	}

	t, ok := ret.(*lua.LTable)
	if !ok {
		L.Close()
		return nil, nil, oops.In("lua").
			Code(CodeInvalidShape).
			With("plugin", pluginName).
			With("path", path).
			New("script no longer exports a table")
	}
	action := t.RawGetString("action")
	if _, ok := action.(*lua.LFunction); !ok {
		L.Close()
		return nil, nil, oops.In("lua").
			Code(CodeInvalidShape).
			With("plugin", pluginName).
			With("path", path).
			New("script no longer exports an action function")
	}
	return L, action, nil
}

// evalChunk runs source as a chunk and returns its single return value.
func evalChunk(L *lua.LState, name, source string) (lua.LValue, error) {
	fn, err := L.Load(strings.NewReader(source), name)
	if err != nil {
		return nil, err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// decodeReply converts an action's return value into a Reply. Anything that
// is not a table with a non-empty string content field means "no reply".
func decodeReply(lv lua.LValue) *Reply {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return nil
	}
	content, ok := t.RawGetString("content").(lua.LString)
	if !ok || content == "" {
		return nil
	}
	ephemeral := false
	if b, ok := t.RawGetString("ephemeral").(lua.LBool); ok {
		ephemeral = bool(b)
	}
	return &Reply{Content: string(content), Ephemeral: ephemeral}
}

// scriptFiles lists direct *.lua entries of dir, sorted lexically. Missing
// or unreadable directories are treated as empty, never as errors.
func scriptFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unreadable script directory", "dir", dir, "error", err)
		}
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ScriptExt {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths
}
