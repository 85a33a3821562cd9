// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// toLValue converts a Go value into a Lua value. Maps and slices convert
// recursively; unsupported types convert to their string form so scripts
// always receive something printable.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLValue(L, item))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(toLValue(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// fromLValue converts a Lua value back into a plain Go value. Tables with
// only positive integer keys become slices, everything else becomes a
// map[string]any.
func fromLValue(lv lua.LValue) any {
	switch val := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case *lua.LTable:
		return fromLTable(val)
	default:
		return lv.String()
	}
}

func fromLTable(t *lua.LTable) any {
	arrayLen := t.Len()
	isArray := arrayLen > 0
	size := 0
	t.ForEach(func(k, _ lua.LValue) {
		size++
		if _, ok := k.(lua.LNumber); !ok {
			isArray = false
		}
	})

	if isArray && size == arrayLen {
		out := make([]any, 0, arrayLen)
		for i := 1; i <= arrayLen; i++ {
			out = append(out, fromLValue(t.RawGetInt(i)))
		}
		return out
	}

	out := make(map[string]any, size)
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = fromLValue(v)
	})
	return out
}
