package gitops

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir, io.Discard))

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir, io.Discard))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir, io.Discard))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte("account_id\n"), 0o644))

	hash, err := CommitAll(dir, "ingest: tb.xlsx (3 accounts)", "FinSight", "finsight@localhost")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "ingest: tb.xlsx (3 accounts)|FinSight <finsight@localhost>")
}

func TestCommitAllClean(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir, io.Discard))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	_, err := CommitAll(dir, "first", "T", "t@example.com")
	require.NoError(t, err)

	dirty, err := HasChanges(dir)
	require.NoError(t, err)
	assert.False(t, dirty)

	hash, err := CommitAll(dir, "second", "T", "t@example.com")
	require.NoError(t, err)
	assert.Empty(t, hash, "nothing to commit")
}
