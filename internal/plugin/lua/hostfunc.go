// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package lua

import (
	"log/slog"

	"github.com/oklog/ulid/v2"
	lua "github.com/yuin/gopher-lua"
)

// registerHostFunctions installs the helio.* API into a plugin state.
// Scripts get structured logging and request-id generation; everything
// else reaches them through the action arguments.
func registerHostFunctions(L *lua.LState, pluginName string) {
	helio := L.NewTable()

	L.SetField(helio, "log", L.NewFunction(func(L *lua.LState) int {
		level := L.CheckString(1)
		msg := L.CheckString(2)

		logFn := slog.Info
		switch level {
		case "debug":
			logFn = slog.Debug
		case "warn":
			logFn = slog.Warn
		case "error":
			logFn = slog.Error
		}
		logFn(msg, "plugin", pluginName)
		return 0
	}))

	L.SetField(helio, "request_id", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(ulid.Make().String()))
		return 1
	}))

	L.SetGlobal("helio", helio)
}
