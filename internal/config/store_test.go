package config

import (
	"os"
	"path/filepath"
	"testing"

	"whisper-transcriber/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.Language != "auto" {
		t.Fatalf("language = %q, want auto", cfg.Language)
	}
	if cfg.ModelSize != domain.ModelSizeSmall {
		t.Fatalf("model size = %q, want small", cfg.ModelSize)
	}
	if filepath.Base(cfg.CacheDir) != "whisper" {
		t.Fatalf("cache dir = %q, want .../.cache/whisper", cfg.CacheDir)
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing", "settings.json"))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "cfg", "settings.json"))
	want := domain.Settings{
		ModelSize: domain.ModelSizeLarge,
		CacheDir:  "/models",
		Language:  "en",
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("expected json parse error")
	}
}

// TestNormalizeFillsDefaults checks invalid and blank fields.
func TestNormalizeFillsDefaults(t *testing.T) {
	got := Normalize(domain.Settings{
		ModelSize: "huge",
		CacheDir:  "  ",
		Language:  " ",
	})

	if got.ModelSize != domain.DefaultModelSize {
		t.Fatalf("model size = %q, want %q", got.ModelSize, domain.DefaultModelSize)
	}
	if got.CacheDir != DefaultCacheDir() {
		t.Fatalf("cache dir = %q, want %q", got.CacheDir, DefaultCacheDir())
	}
	if got.Language != "auto" {
		t.Fatalf("language = %q, want auto", got.Language)
	}
}

// TestNormalizeKeepsValidValues checks trimming without replacement.
func TestNormalizeKeepsValidValues(t *testing.T) {
	got := Normalize(domain.Settings{
		ModelSize: " Medium ",
		CacheDir:  " /data/whisper ",
		Language:  " de ",
	})

	want := domain.Settings{ModelSize: domain.ModelSizeMedium, CacheDir: "/data/whisper", Language: "de"}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}
