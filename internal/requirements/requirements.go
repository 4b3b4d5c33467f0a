// Package requirements keeps a pip pin file in line with the packages
// installed in the active Python environment.
package requirements

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

const pinSeparator = "=="

// Requirement is one pinned package.
type Requirement struct {
	Name    string
	Version string
}

// String renders the pin as name==version.
func (r Requirement) String() string {
	return r.Name + pinSeparator + r.Version
}

// Freezer lists installed packages by name.
type Freezer interface {
	Freeze(ctx context.Context) (map[string]string, error)
}

// ReadFile returns the lines of the pin file. A missing file is an empty list.
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return lines, nil
}

// PackageName returns the name part of a pin line.
func PackageName(line string) string {
	name, _, _ := strings.Cut(line, pinSeparator)
	return strings.TrimSpace(name)
}

// Merge pins every existing line to its installed version. Lines whose
// package is not installed are kept as-is. The result is sorted.
func Merge(existing []string, installed map[string]string) []string {
	out := make([]string, 0, len(existing))
	for _, line := range existing {
		name := PackageName(line)
		if version, ok := installed[name]; ok {
			out = append(out, Requirement{Name: name, Version: version}.String())
			continue
		}
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}

// WriteFile writes one line per entry, each newline-terminated.
func WriteFile(path string, lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Result summarizes one Update run.
type Result struct {
	Path    string
	Created bool
	Lines   []string
	Changed int
}

// Update rewrites the pin file at path with installed versions.
func Update(ctx context.Context, path string, freezer Freezer) (Result, error) {
	existing, err := ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	_, statErr := os.Stat(path)

	installed, err := freezer.Freeze(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list installed packages: %w", err)
	}

	merged := Merge(existing, installed)
	if err := WriteFile(path, merged); err != nil {
		return Result{}, err
	}

	return Result{
		Path:    path,
		Created: errors.Is(statErr, os.ErrNotExist),
		Lines:   merged,
		Changed: countChanged(existing, merged),
	}, nil
}

// countChanged counts merged lines that were not present before.
func countChanged(before, after []string) int {
	seen := make(map[string]int, len(before))
	for _, line := range before {
		seen[line]++
	}
	changed := 0
	for _, line := range after {
		if seen[line] > 0 {
			seen[line]--
			continue
		}
		changed++
	}
	return changed
}
