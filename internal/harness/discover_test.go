package harness

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverScenarios(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.yaml", "")
	a := writeFile(t, dir, "a.yml", "")
	nested := writeFile(t, dir, "nested/c.YAML", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := DiscoverScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, nested}, files)

	single, err := DiscoverScenarios(b)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, single)
}

func TestDiscoverScenarios_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	_, err := DiscoverScenarios(path)

	var notFound *ScenarioNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, path, notFound.Path)
	assert.Contains(t, err.Error(), "does not exist")
}
