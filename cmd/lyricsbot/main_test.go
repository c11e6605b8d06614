package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLyrics = `[
	{"title": "Mujeres bellas y fuertes", "lyrics": "uno\ndos\ntres"},
	{"title": "Chica de oro", "lyrics": ["cuatro"]}
]`

func setupWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"CORPUS_SOURCE", "HISTORY_BACKEND", "HISTORY_FILE", "PUBLISHER", "BOT_TOKEN",
		"LOG_CHANNEL_ID", "LOG_FILE", "LOG_LEVEL", "PUBLISH_FAILURE_POLICY",
		"POST_INTERVAL", "RETRY_INTERVAL", "MAX_ATTEMPTS", "ATTRIBUTION",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LYRICS_FILE", filepath.Join(dir, "lyrics.json"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lyrics.json"), []byte(testLyrics), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	setupWorkdir(t)
	require.NoError(t, os.WriteFile("posted.json", []byte(`["uno"]`), 0o644))

	out, err := execute(t, "stats", "--history", "posted.json")
	require.NoError(t, err)

	assert.Contains(t, out, "total songs: 2")
	assert.Contains(t, out, "total lines: 4")
	assert.Contains(t, out, "posted lines: 1")
	assert.Contains(t, out, "remaining unique lines: 3/4")
	assert.Contains(t, out, "average lines per song: 2.0")
	assert.Contains(t, out, " 1. Mujeres bellas y fuertes: 3 lines")
	assert.Contains(t, out, " 2. Chica de oro: 1 lines")
}

func TestPreviewCommand_RecordsToSeparateHistory(t *testing.T) {
	dir := setupWorkdir(t)

	_, err := execute(t, "preview", "-n", "4")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, defaultPreviewHistory))
	require.NoError(t, err)
	assert.JSONEq(t, `["cuatro", "dos", "tres", "uno"]`, string(data))

	_, err = os.Stat(filepath.Join(dir, "posted_lines.json"))
	assert.True(t, os.IsNotExist(err), "real history must not be touched")
}

func TestClearHistoryCommand(t *testing.T) {
	setupWorkdir(t)
	require.NoError(t, os.WriteFile("posted.json", []byte(`["uno", "dos"]`), 0o644))

	out, err := execute(t, "clear-history", "--history", "posted.json")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared post history")

	data, err := os.ReadFile("posted.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestPostOnceCommand_ConsolePublisher(t *testing.T) {
	dir := setupWorkdir(t)
	t.Setenv("PUBLISHER", "console")
	t.Setenv("HISTORY_FILE", filepath.Join(dir, "history.json"))

	_, err := execute(t, "post-once")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	assert.NotEqual(t, "[]\n", string(data))
}

func TestPostOnceCommand_MissingCorpus(t *testing.T) {
	setupWorkdir(t)
	t.Setenv("PUBLISHER", "console")
	t.Setenv("LYRICS_FILE", "nope.json")

	_, err := execute(t, "post-once")
	assert.ErrorContains(t, err, "corpus load failed")
}

func TestRunCommand_RequiresCredentials(t *testing.T) {
	setupWorkdir(t)
	t.Setenv("BLUESKY_HANDLE", "")
	t.Setenv("BLUESKY_PASSWORD", "")

	_, err := execute(t, "run")
	assert.ErrorContains(t, err, "BLUESKY_HANDLE")
}
