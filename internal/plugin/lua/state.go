// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

// Package lua provides a sandboxed Lua runtime for plugin scripts.
package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// sandboxLibrary is a Lua standard library permitted inside plugin states.
type sandboxLibrary struct {
	name string
	fn   lua.LGFunction
}

// defaultSandboxLibraries returns the libraries plugin scripts may use.
// Permitted: base, table, string, math.
// Blocked: os, io, debug, package (filesystem and process access).
func defaultSandboxLibraries() []sandboxLibrary {
	return []sandboxLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// blockedBaseFunctions are base-library functions that would let a script
// escape the sandbox by loading arbitrary code or files.
var blockedBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// StateFactory creates sandboxed Lua states for plugin execution.
type StateFactory struct {
	libraries []sandboxLibrary
}

// NewStateFactory creates a factory with the default sandbox libraries.
func NewStateFactory() *StateFactory {
	return &StateFactory{libraries: defaultSandboxLibraries()}
}

// NewState creates a fresh Lua state with only the sandbox libraries loaded.
// The returned state carries ctx so host functions inherit cancellation.
func (f *StateFactory) NewState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open library %s: %w", lib.name, err)
		}
	}

	for _, fn := range blockedBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}

	if ctx != nil {
		L.SetContext(ctx)
	}

	return L, nil
}
