// Package plugin provides plugin discovery, manifest handling, and loading.
package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestFilename is the per-plugin metadata file, relative to the plugin
// directory.
const ManifestFilename = "plugin.yaml"

// Defaults applied by the lenient loading path when the manifest is missing
// or incomplete.
const (
	DefaultVersion     = "unknown"
	DefaultDescription = "No description provided."
)

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name        string         `yaml:"name" json:"name"`
	Version     string         `yaml:"version" json:"version"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Config      map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with a lowercase letter,
// followed by lowercase letters, digits, or hyphens, and cannot end with a
// hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and strictly validates manifest data. The runtime
// loader does not use this path; it is for `plugins validate` and tests.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return fmt.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return fmt.Errorf("version is required")
	}

	return nil
}

// LoadManifest reads the manifest for a plugin directory leniently: a
// missing or malformed file falls back to defaults derived from the
// directory name rather than failing the plugin. After LoadManifest the
// name and version fields are always non-empty.
func LoadManifest(dir, fallbackName string) *Manifest {
	m := &Manifest{}

	path := filepath.Join(dir, ManifestFilename)
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case os.IsNotExist(err):
		slog.Debug("plugin has no manifest, using defaults", "plugin", fallbackName)
	case err != nil:
		slog.Warn("unreadable plugin manifest, using defaults",
			"plugin", fallbackName,
			"path", path,
			"error", err)
	default:
		if parseErr := yaml.Unmarshal(data, m); parseErr != nil {
			slog.Warn("malformed plugin manifest, using defaults",
				"plugin", fallbackName,
				"path", path,
				"error", parseErr)
			m = &Manifest{}
		}
	}

	m.normalize(fallbackName)
	return m
}

// normalize fills in defaults so downstream code never sees empty required
// fields, and warns about versions that are not semver.
func (m *Manifest) normalize(fallbackName string) {
	if m.Name == "" {
		m.Name = fallbackName
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	if m.Description == "" {
		m.Description = DefaultDescription
	}
	if m.Config == nil {
		m.Config = map[string]any{}
	}

	if m.Version != DefaultVersion {
		if _, err := semver.NewVersion(m.Version); err != nil {
			slog.Warn("plugin version is not semver",
				"plugin", m.Name,
				"version", m.Version)
		}
	}
}
