// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// IsCommand reports whether lv has the shape of a command script's export:
// a table with string name, string description, and a function action.
// It is a pure shape check and never panics; semantic checks (non-empty
// name, uniqueness) happen elsewhere.
func IsCommand(lv lua.LValue) bool {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return false
	}
	if !isString(t.RawGetString("name")) {
		return false
	}
	if !isString(t.RawGetString("description")) {
		return false
	}
	return isFunction(t.RawGetString("action"))
}

// IsEvent reports whether lv has the shape of an event script's export:
// a table with string event, absent-or-boolean once, and a function action.
func IsEvent(lv lua.LValue) bool {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return false
	}
	if !isString(t.RawGetString("event")) {
		return false
	}
	once := t.RawGetString("once")
	if once != lua.LNil {
		if _, ok := once.(lua.LBool); !ok {
			return false
		}
	}
	return isFunction(t.RawGetString("action"))
}

func isString(lv lua.LValue) bool {
	_, ok := lv.(lua.LString)
	return ok
}

func isFunction(lv lua.LValue) bool {
	_, ok := lv.(*lua.LFunction)
	return ok
}
