package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	t.Run("custom path without file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(configPath)
		require.NoError(t, err)
		assert.Equal(t, configPath, store.Path())
		assert.False(t, store.IsModified())

		all, err := store.GetAll()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("default path", func(t *testing.T) {
		expected, err := DefaultPath()
		require.NoError(t, err)

		homeDir, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(homeDir, ".anistream", "config.json"), expected)
	})

	t.Run("loads existing file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		raw, _ := json.Marshal(map[string]any{
			"version":  "1.0",
			"sections": map[string]any{"browsing": map[string]any{"ad_block_enabled": false}},
		})
		require.NoError(t, os.WriteFile(configPath, raw, 0600))

		store, err := NewFileStore(configPath)
		require.NoError(t, err)

		section, err := store.GetSection("browsing")
		require.NoError(t, err)
		assert.Equal(t, false, section["ad_block_enabled"])
	})

	t.Run("invalid json", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(configPath, []byte("{"), 0600))

		_, err := NewFileStore(configPath)
		assert.Error(t, err)
	})
}

func TestFileStore_SaveAndReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sub", "config.json")
	store, err := NewFileStore(configPath)
	require.NoError(t, err)

	require.NoError(t, store.SetSection("downloads", map[string]any{"download_path": "/tmp/anime"}))
	assert.True(t, store.IsModified())

	require.NoError(t, store.Save())
	assert.False(t, store.IsModified())

	_, err = os.Stat(configPath + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	reloaded, err := NewFileStore(configPath)
	require.NoError(t, err)
	section, err := reloaded.GetSection("downloads")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/anime", section["download_path"])
}

func TestFileStore_Copies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	input := map[string]any{"headless": true}
	require.NoError(t, store.SetSection("automation", input))
	input["headless"] = false

	got, err := store.GetSection("automation")
	require.NoError(t, err)
	assert.Equal(t, true, got["headless"])

	got["headless"] = "mutated"
	again, _ := store.GetSection("automation")
	assert.Equal(t, true, again["headless"])

	require.NoError(t, store.SetAll(map[string]map[string]any{"browsing": {"ad_block_enabled": true}}))
	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	all["browsing"]["ad_block_enabled"] = false

	browsing, _ := store.GetSection("browsing")
	assert.Equal(t, true, browsing["ad_block_enabled"])
}

func TestFileStore_MissingSection(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	section, err := store.GetSection("nope")
	require.NoError(t, err)
	assert.NotNil(t, section)
	assert.Empty(t, section)
}
