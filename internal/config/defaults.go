package config

import (
	"os"
	"path/filepath"
	"strings"

	"whisper-transcriber/internal/domain"
)

// DefaultCacheDir is where model weights are kept between runs.
func DefaultCacheDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".cache", "whisper")
}

// DefaultSettingsPath is the settings file used by the desktop app.
func DefaultSettingsPath(homeDir string) string {
	return filepath.Join(homeDir, ".whisper-transcriber", "settings.json")
}

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		ModelSize: domain.DefaultModelSize,
		CacheDir:  DefaultCacheDir(),
		Language:  "auto",
	}
}

// Normalize trims user input and fills empty or invalid fields with defaults.
func Normalize(settings domain.Settings) domain.Settings {
	size, err := domain.ParseModelSize(string(settings.ModelSize))
	if err != nil {
		size = domain.DefaultModelSize
	}
	settings.ModelSize = size

	settings.CacheDir = strings.TrimSpace(settings.CacheDir)
	if settings.CacheDir == "" {
		settings.CacheDir = DefaultCacheDir()
	}

	settings.Language = strings.TrimSpace(settings.Language)
	if settings.Language == "" {
		settings.Language = "auto"
	}
	return settings
}
