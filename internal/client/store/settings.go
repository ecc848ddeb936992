package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const settingsFile = "app-settings.json"

// Settings is the device-local preference record. It never syncs to the
// server and survives sign-out.
type Settings struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	AutoSave      bool   `json:"autoSave"`
	Language      string `json:"language"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:         "light",
		Notifications: true,
		AutoSave:      true,
		Language:      "en",
	}
}

// LoadSettings reads the persisted settings, falling back to defaults for
// missing or corrupt files. Unknown fields are ignored, absent fields keep
// their defaults, so old files survive new releases.
func LoadSettings(dir string) Settings {
	settings := DefaultSettings()
	payload, err := os.ReadFile(filepath.Join(dir, settingsFile))
	if err != nil {
		return settings
	}
	if err := json.Unmarshal(payload, &settings); err != nil {
		return DefaultSettings()
	}
	return settings
}

func SaveSettings(dir string, settings Settings) error {
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, settingsFile), payload, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// ResetSettings removes the persisted file so the next load sees defaults.
func ResetSettings(dir string) error {
	err := os.Remove(filepath.Join(dir, settingsFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}
