package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, m.Roots)
	assert.Equal(t, filepath.Join(dir, ".ember", "cache.db"), m.CachePath())
	assert.Equal(t, []string{dir}, m.RootPaths())
}

func TestLoadReadsYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
name: demo
roots:
  - src
  - vendor/ember
stdlib: "0.3"
cache: build/cache.db
`), 0o644))

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, "0.3", m.Stdlib)
	assert.Equal(t, filepath.Join(dir, "build", "cache.db"), m.CachePath())
	assert.Equal(t, []string{
		filepath.Join(dir, "src"),
		filepath.Join(dir, "vendor", "ember"),
	}, m.RootPaths())
}

func TestLoadRejectsMalformedYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("roots: {oops"), 0o644))
	_, err := Load(dir)
	require.Error(t, err)
}
