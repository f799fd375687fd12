// Package manifest reads the ember.yaml project manifest.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "ember.yaml"

// Manifest describes a project: where its modules live, which standard
// module version it pins, and where compiled artifacts are cached.
type Manifest struct {
	// Name is the project name. It is parsed but no command reads it.
	Name string `yaml:"name,omitempty"`

	// Roots lists directories whose .ember files form the module tree.
	// Relative paths are resolved against the manifest's directory.
	Roots []string `yaml:"roots,omitempty"`

	// Stdlib pins the standard module version. Informational for now;
	// the toolchain ships exactly one std.
	Stdlib string `yaml:"stdlib,omitempty"`

	// Cache is the path of the compiled-bytecode cache database.
	Cache string `yaml:"cache,omitempty"`

	dir string
}

// Default is the manifest an uninitialized directory behaves as.
func Default(dir string) *Manifest {
	return &Manifest{
		Roots: []string{"."},
		Cache: filepath.Join(".ember", "cache.db"),
		dir:   dir,
	}
}

// Load reads dir/ember.yaml, falling back to defaults when the file
// does not exist.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return Default(dir), nil
	}
	if err != nil {
		return nil, err
	}
	m := Default(dir)
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if len(m.Roots) == 0 {
		m.Roots = []string{"."}
	}
	return m, nil
}

// CachePath resolves the cache database location against the manifest
// directory.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Cache) {
		return m.Cache
	}
	return filepath.Join(m.dir, m.Cache)
}

// RootPaths resolves the module roots against the manifest directory.
func (m *Manifest) RootPaths() []string {
	out := make([]string, len(m.Roots))
	for i, r := range m.Roots {
		if filepath.IsAbs(r) {
			out[i] = r
		} else {
			out[i] = filepath.Join(m.dir, r)
		}
	}
	return out
}
