package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return &Manager{configDir: t.TempDir()}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := testManager(t).Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 2, cfg.ReviewCap)
	assert.Equal(t, 0, cfg.ClarifyRounds)
	assert.Equal(t, 12000, cfg.HistoryBudget)
	assert.Equal(t, 120*time.Second, cfg.CallTimeout())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	m := testManager(t)

	saved := defaults()
	saved.LLMProvider = "anthropic"
	saved.Model = "claude-3-5-sonnet-20241022"
	saved.ReviewCap = 3
	saved.GuidesDir = "/srv/guides"
	require.NoError(t, m.Save(saved))
	assert.True(t, m.Exists())

	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.LLMProvider)
	assert.Equal(t, 3, got.ReviewCap)
	assert.Equal(t, "/srv/guides", got.GuidesDir)

	info, err := os.Stat(m.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRIPWEAVER_REVIEW_CAP", "5")
	t.Setenv("TRIPWEAVER_DATA_DIR", "/tmp/tw-data")
	t.Setenv("LLM_PROVIDER", "groq")

	cfg, err := testManager(t).Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.ReviewCap)
	assert.Equal(t, "groq", cfg.LLMProvider)
	assert.Equal(t, "/tmp/tw-data", cfg.DataDir)
	assert.Equal(t, filepath.Join("/tmp/tw-data", "checkpoints.db"), cfg.CheckpointPath())
	assert.Equal(t, filepath.Join("/tmp/tw-data", "places.db"), cfg.PlacesPath())
	assert.Equal(t, filepath.Join("/tmp/tw-data", "guides.bleve"), cfg.GuideIndexPath())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	m := testManager(t)
	require.NoError(t, os.WriteFile(m.GetConfigPath(), []byte("{not json"), 0600))

	_, err := m.Load()
	assert.Error(t, err)
}
