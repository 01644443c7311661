package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestListShowsPlugins(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runCLI(t, "--config-dir", dir, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "deepseek")
	assert.Contains(t, out, "qianwen")
	assert.Contains(t, out, "doubao")
	assert.Contains(t, out, "No bot configs")
}

func TestInitWritesSamples(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runCLI(t, "--config-dir", dir, "init")
	require.NoError(t, err)

	for _, bot := range sampleBots {
		assert.Contains(t, out, bot+".yaml")
		assert.FileExists(t, filepath.Join(dir, bot+".yaml"))
	}
}

func TestInitSubsetAndFormat(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, "--config-dir", dir, "init", "deepseek", "--format", "json")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "deepseek.json"))
	assert.NoFileExists(t, filepath.Join(dir, "qianwen.json"))
}

func TestInitUnknownBot(t *testing.T) {
	_, _, err := runCLI(t, "--config-dir", t.TempDir(), "init", "nonexistent")
	assert.Error(t, err)
}

func TestListAfterInit(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, "--config-dir", dir, "init")
	require.NoError(t, err)

	out, _, err := runCLI(t, "--config-dir", dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Configured bots:")
}

func TestSendRequiresBotAndMessage(t *testing.T) {
	_, _, err := runCLI(t, "--config-dir", t.TempDir(), "send", "onlybot")
	assert.Error(t, err)
}

func TestSendUnknownBot(t *testing.T) {
	_, _, err := runCLI(t, "--config-dir", t.TempDir(), "send", "ghost", "hi")
	assert.Error(t, err)
}
