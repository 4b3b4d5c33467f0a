package models

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"whisper-transcriber/internal/domain"
)

// Cache maps model sizes to weight files under a local directory.
type Cache struct {
	dir        string
	catalog    Catalog
	downloader *Downloader
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, catalog Catalog, downloader *Downloader) *Cache {
	if downloader == nil {
		downloader = NewDownloader(nil)
	}
	return &Cache{dir: dir, catalog: catalog, downloader: downloader}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns where weights for size live once downloaded.
func (c *Cache) Path(size domain.ModelSize) (string, error) {
	option, ok := c.catalog.Lookup(size)
	if !ok {
		return "", fmt.Errorf("unknown model size: %q", size)
	}
	return filepath.Join(c.dir, option.FileName), nil
}

// Exists reports whether non-empty weights for size are cached.
func (c *Cache) Exists(size domain.ModelSize) bool {
	path, err := c.Path(size)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Options returns the catalog with cache state filled in.
func (c *Cache) Options() []domain.WhisperModelOption {
	options := c.catalog.Options()
	for i := range options {
		if c.Exists(options[i].Size) {
			options[i].Downloaded = true
			options[i].LocalPath = filepath.Join(c.dir, options[i].FileName)
		}
	}
	return options
}

// Download fetches weights for size into the cache and returns the file path.
func (c *Cache) Download(ctx context.Context, size domain.ModelSize, onProgress ProgressFunc) (string, error) {
	option, ok := c.catalog.Lookup(size)
	if !ok {
		return "", fmt.Errorf("unknown model size: %q", size)
	}

	target := filepath.Join(c.dir, option.FileName)
	if err := c.downloader.Download(ctx, option.URL, target, onProgress); err != nil {
		return "", fmt.Errorf("download %s model: %w", option.Name, err)
	}
	return target, nil
}
