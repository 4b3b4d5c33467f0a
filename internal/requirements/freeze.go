package requirements

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"whisper-transcriber/internal/command"
)

// PipFreezer lists packages with `<python> -m pip freeze`.
type PipFreezer struct {
	Python string
	Runner command.Runner
}

// NewPipFreezer builds a freezer for the given interpreter.
func NewPipFreezer(python string) *PipFreezer {
	return &PipFreezer{Python: python, Runner: command.ExecRunner{}}
}

// Freeze runs pip and parses its name==version output.
func (f *PipFreezer) Freeze(ctx context.Context) (map[string]string, error) {
	args := []string{"-m", "pip", "freeze"}
	res, err := f.Runner.Run(ctx, f.Python, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", f.Python, strings.Join(args, " "), err, strings.TrimSpace(res.Stderr))
	}
	return ParseFreeze(res.Stdout)
}

// ParseFreeze parses pip freeze output. Blank lines and comments are
// skipped; any other line without a version pin is an error.
func ParseFreeze(output string) (map[string]string, error) {
	packages := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, version, ok := strings.Cut(line, pinSeparator)
		if !ok || strings.Contains(version, pinSeparator) {
			return nil, fmt.Errorf("line %d: unexpected pip freeze entry %q", lineNo, line)
		}
		packages[name] = version
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return packages, nil
}
