package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"whisper-transcriber/internal/domain"
	"whisper-transcriber/internal/models"
)

var testTools = []string{"ffmpeg", "whisper.cpp"}

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "whisper")
	cache := models.NewCache(cacheDir, models.NewCatalog(""), nil)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "ggml-base.bin"), []byte("stub"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	checker := NewCheckerForTests(
		cache,
		testTools,
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		ModelSize: domain.ModelSizeBase,
		CacheDir:  cacheDir,
		Language:  "auto",
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	if len(report.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(report.Items))
	}
}

// TestCheckerRunMissingToolsAndPaths validates failure reporting.
func TestCheckerRunMissingToolsAndPaths(t *testing.T) {
	cache := models.NewCache(t.TempDir(), models.NewCatalog(""), nil)
	checker := NewCheckerForTests(
		cache,
		testTools,
		func(string) (string, error) { return "", errors.New("not found") },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		ModelSize: domain.ModelSizeSmall,
		CacheDir:  "",
	})
	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "tool_ffmpeg", domain.CheckFail)
	assertStatusByID(t, report, "tool_whisper.cpp", domain.CheckFail)
	assertStatusByID(t, report, "cache_dir", domain.CheckFail)
	assertStatusByID(t, report, "model_weights", domain.CheckFail)
	if len(report.Failed()) != 4 {
		t.Fatalf("failed = %d, want 4", len(report.Failed()))
	}
}

// TestCheckerRunUnwritableCache validates the write probe.
func TestCheckerRunUnwritableCache(t *testing.T) {
	cache := models.NewCache(t.TempDir(), models.NewCatalog(""), nil)
	checker := NewCheckerForTests(
		cache,
		nil,
		func(name string) (string, error) { return name, nil },
		func(string, os.FileMode) error { return nil },
		func(string, string) (*os.File, error) { return nil, errors.New("read-only") },
		os.Remove,
	)

	report := checker.Run(domain.Settings{ModelSize: domain.ModelSizeTiny, CacheDir: "/ro"})
	assertStatusByID(t, report, "cache_dir", domain.CheckFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.CheckReport, id string, want domain.CheckStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
