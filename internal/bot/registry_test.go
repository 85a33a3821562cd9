// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(Entry{Name: "hello", Description: "greets", Source: "greet"})

	entry, ok := r.Get("hello")
	require.True(t, ok)
	assert.Equal(t, "greet", entry.Source)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateLastWins(t *testing.T) {
	r := NewRegistry()
	r.Register(Entry{Name: "hello", Source: "alpha"})
	r.Register(Entry{Name: "hello", Source: "beta"})

	entry, ok := r.Get("hello")
	require.True(t, ok)
	assert.Equal(t, "beta", entry.Source)
	assert.Equal(t, 1, r.Len())

	// Reverse registration order flips the winner.
	r2 := NewRegistry()
	r2.Register(Entry{Name: "hello", Source: "beta"})
	r2.Register(Entry{Name: "hello", Source: "alpha"})

	entry, ok = r2.Get("hello")
	require.True(t, ok)
	assert.Equal(t, "alpha", entry.Source)
}

func TestRegistry_CommandInfosSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(Entry{Name: "zebra", Description: "z"})
	r.Register(Entry{Name: "apple", Description: "a"})
	r.Register(Entry{Name: "mango", Description: "m"})

	infos := r.CommandInfos()

	require.Len(t, infos, 3)
	assert.Equal(t, "apple", infos[0].Name)
	assert.Equal(t, "mango", infos[1].Name)
	assert.Equal(t, "zebra", infos[2].Name)
}

func TestRegistry_CommandInfosEmpty(t *testing.T) {
	assert.Empty(t, NewRegistry().CommandInfos())
}
