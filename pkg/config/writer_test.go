package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveConfig_RoundTrip(t *testing.T) {
	v := newViper(t)
	v.Set("max-size", 4096)
	v.Set("search.timeout", 5*time.Second)
	v.Set("input", "prompt.txt")

	path := filepath.Join(t.TempDir(), "nested", "fstools.yaml")
	require.NoError(t, SaveConfig(v, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "prompt.txt")

	loaded := viper.New()
	SetDefaults(loaded)
	loaded.SetConfigFile(path)
	require.NoError(t, loaded.ReadInConfig())

	cfg, err := FromViper(loaded)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), cfg.MaxFileSize)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Empty(t, cfg.InputFile)
	assert.Equal(t, []string{".git", ".env", "*.key", "*.pem"}, cfg.ExcludedPaths)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "llm-fstools.config.yaml", GetConfigPath())
}
