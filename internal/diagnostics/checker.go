package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"whisper-transcriber/internal/domain"
)

// ModelLocator resolves cached weights for a model size.
type ModelLocator interface {
	Path(size domain.ModelSize) (string, error)
	Exists(size domain.ModelSize) bool
}

// Checker validates external tools and the weight cache.
type Checker struct {
	tools      []string
	models     ModelLocator
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies. tools are the
// executables transcription needs on PATH.
func NewChecker(models ModelLocator, tools ...string) *Checker {
	return &Checker{
		tools:      tools,
		models:     models,
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.CheckReport {
	items := make([]domain.CheckItem, 0, len(c.tools)+2)
	for _, tool := range c.tools {
		items = append(items, c.checkTool(tool))
	}
	items = append(items,
		c.checkCacheDir(settings.CacheDir),
		c.checkModel(settings.ModelSize),
	)

	report := domain.CheckReport{
		GeneratedAt: time.Now().UTC(),
		Items:       items,
	}
	report.HasFailures = len(report.Failed()) > 0
	return report
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name string) domain.CheckItem {
	path, err := c.lookPath(name)
	if err != nil {
		return domain.CheckItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  domain.CheckFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install it and ensure the binary is available on PATH before transcribing.",
		}
	}

	return domain.CheckItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.CheckPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkCacheDir validates cache directory existence and write access.
func (c *Checker) checkCacheDir(dir string) domain.CheckItem {
	item := domain.CheckItem{
		ID:   "cache_dir",
		Name: "Model cache",
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.CheckFail
		item.Message = "Model cache directory is empty."
		item.Hint = "Set WHISPER_CACHE_DIR or the cacheDir setting."
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.CheckFail
		item.Message = fmt.Sprintf("Cannot create model cache directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.CheckFail
		item.Message = fmt.Sprintf("Model cache directory is not writable: %s", dir)
		item.Hint = "Downloads need write access to the cache directory."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.CheckPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// checkModel reports whether weights for the selected size are cached.
func (c *Checker) checkModel(size domain.ModelSize) domain.CheckItem {
	item := domain.CheckItem{
		ID:   "model_weights",
		Name: "Model weights",
	}

	path, err := c.models.Path(size)
	if err != nil {
		item.Status = domain.CheckFail
		item.Message = err.Error()
		item.Hint = "Select one of the listed model sizes."
		return item
	}

	if !c.models.Exists(size) {
		item.Status = domain.CheckFail
		item.Message = fmt.Sprintf("The %s model is not downloaded: %s", size, path)
		item.Hint = "Use Download Model, or transcribe and accept the download prompt."
		return item
	}

	item.Status = domain.CheckPass
	item.Message = fmt.Sprintf("The %s model is cached at %s", size, path)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	models ModelLocator,
	tools []string,
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		tools:      tools,
		models:     models,
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
