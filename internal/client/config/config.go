package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the client-side settings. Everything comes from the
// environment so scripted use stays simple; a .env next to the binary works
// too.
type Config struct {
	// ServerURL is the base URL of the bookmark server.
	ServerURL string
	// StateDir holds the session token, cached bookmarks, settings and the
	// broadcast files other local processes watch.
	StateDir string
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := &Config{
		ServerURL: getEnvWithDefault("SMART_BOOKMARK_SERVER", "http://localhost:3000"),
	}

	cfg.StateDir = os.Getenv("SMART_BOOKMARK_STATE_DIR")
	if cfg.StateDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}
		cfg.StateDir = filepath.Join(configDir, "smart-bookmark")
	}

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	return cfg, nil
}

func getEnvWithDefault(envName, defaultValue string) string {
	if value := os.Getenv(envName); value != "" {
		return value
	}
	return defaultValue
}
