package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewDefaultManager(newMockStore())
	require.NoError(t, err)
	return manager
}

func TestApplyOverrides(t *testing.T) {
	manager := newTestManager(t)

	raw := []byte(`
automation:
  headless: true
  navigation_timeout: 45s
  window_width: 1280
browsing:
  auto_detect_enabled: false
downloads:
  rate_limit: 2048
`)
	require.NoError(t, ApplyOverrides(manager, raw))

	settings := AutomationOf(manager).Snapshot()
	assert.True(t, settings.Headless)
	assert.Equal(t, 45*time.Second, settings.NavigationTimeout)
	assert.Equal(t, 1280, settings.WindowWidth)

	_, autoDetect := BrowsingOf(manager).Defaults()
	assert.False(t, autoDetect)

	_, rate := DownloadsOf(manager).Settings()
	assert.Equal(t, int64(2048), rate)
}

func TestApplyOverridesErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown section", raw: "proxy:\n  url: x\n"},
		{name: "invalid yaml", raw: "automation: [unclosed"},
		{name: "invalid value", raw: "automation:\n  headless: maybe\n"},
		{name: "fails validation", raw: "automation:\n  navigation_timeout: 1ms\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ApplyOverrides(newTestManager(t), []byte(tt.raw)))
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	manager := newTestManager(t)
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("automation:\n  challenge_timeout: 2m\n"), 0600))

	require.NoError(t, LoadOverrides(manager, path))
	assert.Equal(t, 2*time.Minute, AutomationOf(manager).Snapshot().ChallengeTimeout)

	assert.Error(t, LoadOverrides(manager, filepath.Join(t.TempDir(), "missing.yaml")))
}
