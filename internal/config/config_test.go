package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
watch_paths = ["./src"]

[python_version]
major = 3
minor = 12

[exclude]
dirs = [".git"]
files = ["*.log"]

[db]
enabled = true
path = "state/history.db"

[observability]
enabled = true
address = ":9191"
`
	tmpfile, err := os.CreateTemp("", "config*.toml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, []string{"./src"}, cfg.WatchPaths)
	assert.Equal(t, "3.12", cfg.PythonVersion.String())
	assert.Equal(t, []string{".git"}, cfg.Exclude.Dirs)
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, "state/history.db", cfg.DB.Path)
	assert.Equal(t, ":9191", cfg.Observability.Address)
}

func TestLoadDefaults(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config*.toml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"."}, cfg.WatchPaths)
	assert.Equal(t, "3.13", cfg.PythonVersion.String())
	assert.Equal(t, ":9090", cfg.Observability.Address)
}

func TestPythonVersionAtLeast(t *testing.T) {
	v := PythonVersion{Major: 3, Minor: 10}
	assert.True(t, v.AtLeast(3, 10))
	assert.True(t, v.AtLeast(3, 9))
	assert.True(t, v.AtLeast(2, 7))
	assert.False(t, v.AtLeast(3, 11))
	assert.False(t, v.AtLeast(4, 0))
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	assert.Error(t, err)

	tmpfile, _ := os.CreateTemp("", "badconfig*.toml")
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte("bad = toml = format"))
	tmpfile.Close()

	_, err = Load(tmpfile.Name())
	assert.Error(t, err)
}
