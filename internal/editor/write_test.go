package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_CreatesWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	out, err := e.WriteFile("new.txt", "hello\n")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ created new.txt")

	data, err := os.ReadFile(filepath.Join(dir, "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestWriteFile_NoOpWhenByteIdentical(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("same\n"), 0644))
	e := New(dir)

	out, err := e.WriteFile("f.txt", "same\n")
	require.NoError(t, err)
	assert.Contains(t, out, "no-op")
}

func TestWriteFile_ExtensionIsWhitespaceTolerant(t *testing.T) {
	dir := t.TempDir()
	// Existing file has trailing spaces on a line and CRLF endings.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("line one  \r\nline two\r\n"), 0644))
	e := New(dir)

	// New content normalizes to the same prefix plus an appended line.
	out, err := e.WriteFile("f.txt", "line one\nline two\nline three\n")
	require.NoError(t, err)
	assert.Contains(t, out, "adapted")

	data, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\nline three\n", string(data))

	// A backup of the pre-mutation content must exist.
	entries, err := os.ReadDir(filepath.Join(dir, backupDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_BlocksOnDivergentContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("original\n"), 0644))
	e := New(dir)

	out, err := e.WriteFile("f.txt", "completely different\n")
	require.NoError(t, err)
	assert.Contains(t, out, BlockSentinel)

	data, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data), "blocked write must not mutate the file")
}

func TestWriteFile_RejectsPathEscapingWorkspace(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	_, err := e.WriteFile("../outside.txt", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes workspace")
}

func TestWriteFile_RejectsBackupsDirectory(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	_, err := e.WriteFile(".code_agent_backups/sneaky.txt", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backups directory")
}

func TestForceWriteFile_RefusesWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	_, err := e.ForceWriteFile("missing.txt", "x", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestForceWriteFile_OverwritesUnconditionally(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("old\n"), 0644))
	e := New(dir)

	out, err := e.ForceWriteFile("f.txt", "new\n", "rewrite entirely")
	require.NoError(t, err)
	assert.Contains(t, out, "force-wrote")
	assert.Contains(t, out, "rewrite entirely")

	data, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestUpdateFile_RefusesWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	_, err := e.UpdateFile("missing.txt", "x", "test")
	require.Error(t, err)
}

func TestUpdateFile_ReplacesAndReportsCounts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("a\nb\nc\n"), 0644))
	e := New(dir)

	out, err := e.UpdateFile("f.txt", "x\ny\n", "replace entirely")
	require.NoError(t, err)
	assert.Contains(t, out, "before: 3 line")
	assert.Contains(t, out, "after: 2 line")
}
