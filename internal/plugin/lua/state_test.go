// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package lua_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"

	"github.com/heliobot/heliobot/internal/plugin/lua"
)

func TestStateFactory_SafeLibrariesAvailable(t *testing.T) {
	L, err := lua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	err = L.DoString(`
		assert(string.upper("abc") == "ABC")
		assert(math.max(1, 2) == 2)
		assert(table.concat({"a", "b"}, "-") == "a-b")
	`)
	assert.NoError(t, err)
}

func TestStateFactory_UnsafeLibrariesBlocked(t *testing.T) {
	L, err := lua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, name := range []string{"os", "io", "debug", "package"} {
		assert.Equal(t, glua.LNil, L.GetGlobal(name), "library %s should be blocked", name)
	}
}

func TestStateFactory_UnsafeBaseFunctionsBlocked(t *testing.T) {
	L, err := lua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, name := range []string{"dofile", "loadfile", "loadstring", "load"} {
		assert.Equal(t, glua.LNil, L.GetGlobal(name), "function %s should be blocked", name)
	}
}

func TestStateFactory_CarriesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	L, err := lua.NewStateFactory().NewState(ctx)
	require.NoError(t, err)
	defer L.Close()

	assert.Equal(t, "v", L.Context().Value(key{}))
}
