package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	settings := LoadSettings(t.TempDir())

	assert.Equal(t, "light", settings.Theme)
	assert.True(t, settings.Notifications)
	assert.True(t, settings.AutoSave)
	assert.Equal(t, "en", settings.Language)
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	settings := DefaultSettings()
	settings.Theme = "dark"
	settings.Language = "de"
	require.NoError(t, SaveSettings(dir, settings))

	loaded := LoadSettings(dir)
	assert.Equal(t, settings, loaded)
}

func TestLoadSettingsKeepsDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	payload := []byte(`{"theme":"dark"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFile), payload, 0o600))

	loaded := LoadSettings(dir)
	assert.Equal(t, "dark", loaded.Theme)
	assert.True(t, loaded.Notifications)
	assert.Equal(t, "en", loaded.Language)
}

func TestLoadSettingsCorruptFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFile), []byte("???"), 0o600))

	assert.Equal(t, DefaultSettings(), LoadSettings(dir))
}

func TestResetSettings(t *testing.T) {
	dir := t.TempDir()
	settings := DefaultSettings()
	settings.Theme = "dark"
	require.NoError(t, SaveSettings(dir, settings))

	require.NoError(t, ResetSettings(dir))
	require.NoError(t, ResetSettings(dir)) // already reset

	assert.Equal(t, DefaultSettings(), LoadSettings(dir))
}
