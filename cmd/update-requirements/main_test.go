package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePython writes an executable that prints a pip freeze listing.
func fakePython(t *testing.T, listing string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script interpreter")
	}
	path := filepath.Join(t.TempDir(), "python")
	script := "#!/bin/sh\ncat <<'LIST'\n" + listing + "LIST\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func runUpdate(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() { filePath, python, verbose = "", "python3", false })
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestUpdateCommandPinsFile(t *testing.T) {
	py := fakePython(t, "foo==2.0\nbar==3.0\n")
	file := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(file, []byte("foo==1.0\nbar\n"), 0o644))

	require.NoError(t, runUpdate(t, "--file", file, "--python", py))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "bar==3.0\nfoo==2.0\n", string(data))
}

func TestUpdateCommandCreatesMissingFile(t *testing.T) {
	py := fakePython(t, "foo==2.0\n")
	file := filepath.Join(t.TempDir(), "requirements.txt")

	require.NoError(t, runUpdate(t, "-f", file, "--python", py))
	assert.FileExists(t, file)
}

func TestUpdateCommandFreezeFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(file, []byte("foo==1.0\n"), 0o644))

	err := runUpdate(t, "--file", file, "--python", filepath.Join(t.TempDir(), "no-python"))
	require.Error(t, err)

	data, readErr := os.ReadFile(file)
	require.NoError(t, readErr)
	assert.Equal(t, "foo==1.0\n", string(data))
}

func TestDefaultRequirementsPath(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(filepath.Dir(exe)), "requirements.txt")
	assert.Equal(t, want, defaultRequirementsPath())
}
