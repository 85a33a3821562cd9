// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePluginTree lays out one plugin directory with optional manifest and
// script files keyed by path relative to the plugin directory.
func writePluginTree(t *testing.T, root, name, manifest string, files map[string]string) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))

	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.yaml"), []byte(manifest), 0o600))
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

const validCommand = `return { name = "hello", description = "greets", action = function() end }`

const validEvent = `return { event = "READY", once = true, action = function() end }`

func TestPluginsList(t *testing.T) {
	root := t.TempDir()
	writePluginTree(t, root, "greet", "name: greet\nversion: 1.0.0\ndescription: Greets people\n", map[string]string{
		"commands/hello.lua": validCommand,
		"events/ready.lua":   validEvent,
	})

	out, err := execute(t, "plugins", "list", "--plugins-dir", root)
	require.NoError(t, err)

	assert.Contains(t, out, "greet 1.0.0 - Greets people")
	assert.Contains(t, out, "command /hello: greets")
	assert.Contains(t, out, "event READY (once)")
}

func TestPluginsList_Empty(t *testing.T) {
	out, err := execute(t, "plugins", "list", "--plugins-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "no plugins found")
}

func TestPluginsValidate_Valid(t *testing.T) {
	root := t.TempDir()
	writePluginTree(t, root, "greet", "name: greet\nversion: 1.0.0\n", map[string]string{
		"commands/hello.lua": validCommand,
		"events/ready.lua":   validEvent,
	})

	_, err := execute(t, "plugins", "validate", "--plugins-dir", root)
	assert.NoError(t, err)
}

func TestPluginsValidate_MissingManifestAllowed(t *testing.T) {
	root := t.TempDir()
	writePluginTree(t, root, "bare", "", map[string]string{
		"commands/hello.lua": validCommand,
	})

	_, err := execute(t, "plugins", "validate", "--plugins-dir", root)
	assert.NoError(t, err)
}

func TestPluginsValidate_BadManifest(t *testing.T) {
	root := t.TempDir()
	writePluginTree(t, root, "broken", "name: Broken Name\nversion: 1.0.0\n", nil)

	_, err := execute(t, "plugins", "validate", "--plugins-dir", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestPluginsValidate_BadScript(t *testing.T) {
	root := t.TempDir()
	writePluginTree(t, root, "greet", "name: greet\nversion: 1.0.0\n", map[string]string{
		"commands/broken.lua": `return { name = `,
	})

	_, err := execute(t, "plugins", "validate", "--plugins-dir", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestPluginsValidate_MissingRoot(t *testing.T) {
	_, err := execute(t, "plugins", "validate", "--plugins-dir", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plugins root")
}

func TestPluginsSchema(t *testing.T) {
	out, err := execute(t, "plugins", "schema")
	require.NoError(t, err)

	assert.Contains(t, out, "Heliobot Plugin Manifest")
	assert.Contains(t, out, `"$id"`)
}
