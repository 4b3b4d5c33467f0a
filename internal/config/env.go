package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"whisper-transcriber/internal/domain"
)

const (
	EnvCacheDir     = "WHISPER_CACHE_DIR"
	EnvLanguage     = "WHISPER_LANGUAGE"
	EnvLogDev       = "WHISPER_LOG_DEV"
	EnvModelBaseURL = "WHISPER_MODEL_BASE_URL"
	EnvFFmpegBin    = "WHISPER_FFMPEG_BIN"
	EnvWhisperBin   = "WHISPER_CPP_BIN"
)

var envFiles = []string{".env", ".env.local"}

// LoadEnv loads the first .env file found in the working directory.
// A missing file is not an error; variables may be set system-wide.
func LoadEnv() (string, error) {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// ApplyEnv overrides settings fields from environment variables.
func ApplyEnv(settings domain.Settings) domain.Settings {
	if dir := strings.TrimSpace(os.Getenv(EnvCacheDir)); dir != "" {
		settings.CacheDir = dir
	}
	if lang := strings.TrimSpace(os.Getenv(EnvLanguage)); lang != "" {
		settings.Language = lang
	}
	return settings
}

// DevLogging reports whether the console logger was requested.
func DevLogging() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogDev))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
