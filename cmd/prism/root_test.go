package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "structure", "index", "search", "blocklist"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestBlocklistCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "missing.yaml")

	out, err := runCLI(t, "--config", cfgPath, "--data-dir", dir, "--log-level", "error", "blocklist", "add", "doc-b", "doc-a")
	require.NoError(t, err)
	assert.Equal(t, "doc-a\ndoc-b\n", out)

	out, err = runCLI(t, "--config", cfgPath, "--data-dir", dir, "--log-level", "error", "blocklist", "remove", "doc-a")
	require.NoError(t, err)
	assert.Equal(t, "doc-b\n", out)

	_, err = runCLI(t, "--config", cfgPath, "--data-dir", dir, "--log-level", "error", "blocklist", "clear")
	require.NoError(t, err)

	out, err = runCLI(t, "--config", cfgPath, "--data-dir", dir, "--log-level", "error", "blocklist", "list")
	require.NoError(t, err)
	assert.Equal(t, "(empty)\n", out)
}

func TestSearchCommand_EmptyIndex(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, "--config", filepath.Join(dir, "missing.yaml"), "--data-dir", dir, "--log-level", "error", "search", "museums")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestStructureCommand_NoMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))

	_, err := runCLI(t, "--config", filepath.Join(dir, "missing.yaml"), "--data-dir", dir, "--log-level", "error",
		"structure", "--out", filepath.Join(dir, "out"), filepath.Join(dir, "*.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PDF matched")
}
