package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

var (
	// ErrEmptyDownload is returned when the server sends no bytes.
	ErrEmptyDownload = errors.New("download is empty")
	// ErrShortDownload is returned when fewer bytes arrive than announced.
	ErrShortDownload = errors.New("download is incomplete")
)

// ProgressFunc receives bytes written so far and the expected total.
// total is -1 when the server does not send a content length.
type ProgressFunc func(written, total int64)

// Downloader fetches weight files over HTTP.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader returns a downloader using client, or http.DefaultClient when nil.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{client: client, userAgent: "whisper-transcriber"}
}

// Download streams sourceURL into destinationPath. The existing file is only
// replaced once the new one is complete.
func (d *Downloader) Download(ctx context.Context, sourceURL, destinationPath string, onProgress ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return fmt.Errorf("prepare destination directory: %w", err)
	}

	tmpPath := destinationPath + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	var dst io.Writer = file
	if onProgress != nil {
		dst = &progressWriter{w: file, total: resp.ContentLength, fn: onProgress}
	}

	written, copyErr := io.Copy(dst, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write destination file: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close destination file: %w", closeErr)
	}
	if written == 0 {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%s: %w", sourceURL, ErrEmptyDownload)
	}
	if resp.ContentLength > 0 && written < resp.ContentLength {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: got %d of %d bytes", ErrShortDownload, written, resp.ContentLength)
	}

	if err := os.Rename(tmpPath, destinationPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move downloaded file into place: %w", err)
	}
	return nil
}

type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	fn      ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	p.fn(p.written, p.total)
	return n, err
}
