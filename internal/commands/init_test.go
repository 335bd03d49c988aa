package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-dev/finsight/internal/accounts"
	"github.com/finsight-dev/finsight/internal/config"
	"github.com/finsight-dev/finsight/internal/testsupport"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "finsight-test-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "finsight")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/finsight")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmpDir)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func runFinsight(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "FINSIGHT_API_KEY=")
	cmd.Stdin = strings.NewReader(stdin)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// newWorkspace initializes a workspace and returns its directory.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runFinsight(t, "", "init", dir, "--name", "Test Co")
	require.NoError(t, err)
	return dir
}

func writeUpload(t *testing.T, dir, name string, rows ...[]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(testsupport.CSV(rows...)), 0o644))
	return path
}

var uploadHeader = []string{"G/L Account Number", "G/L Acct", "Responsible Department", "Status"}

func TestInit_CreatesStructure(t *testing.T) {
	dir := newWorkspace(t)

	for _, d := range []string{"accounts", "logs", "inbox", filepath.Join("inbox", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{
		config.FileName,
		filepath.Join("accounts", "accounts.csv"),
		filepath.Join("logs", "audit-log.csv"),
		".gitignore",
	} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "%s should exist", f)
	}
}

func TestInit_Config(t *testing.T) {
	dir := newWorkspace(t)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Test Co", cfg.Workspace.Name)
	assert.Equal(t, []string{"Checker 1", "Checker 2", "Final Checker"}, cfg.Workflow.Stages)
}

func TestInit_RequiresName(t *testing.T) {
	out, err := runFinsight(t, "", "init", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, `"name" not set`)
}

func TestInit_RefusesExistingWorkspace(t *testing.T) {
	dir := newWorkspace(t)
	out, err := runFinsight(t, "", "init", dir, "--name", "Again")
	require.Error(t, err)
	assert.Contains(t, out, "already contains")
}

func TestInit_GitRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := newWorkspace(t)

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init: Test Co")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "FinSight <finsight@localhost>")
}

func TestInit_Gitignore(t *testing.T) {
	dir := newWorkspace(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".finsight.lock")
	assert.Contains(t, string(data), ".env")
}

func TestIngest_YesImportsValidRows(t *testing.T) {
	dir := newWorkspace(t)
	path := writeUpload(t, t.TempDir(), "upload.csv",
		uploadHeader,
		[]string{"1001", "Cash", "Finance", "Assets"},
		[]string{"1002", "Bank", "Treasury", "Assets"},
		[]string{"1002", "Bank again", "Treasury", "Assets"},
		[]string{"1003", "", "Finance", "Assets"},
		[]string{"1004", "Payables", "Finance", "Liabilities"},
	)

	out, err := runFinsight(t, "", "-w", dir, "ingest", "--yes", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Header row: 1")
	assert.Contains(t, out, "Imported 2 account(s) from upload.csv; 2 error(s) reported.")
	assert.Contains(t, out, "Assigned IDs #1-#2.")
	assert.Contains(t, out, "DuplicateAccountNumber")
	assert.Contains(t, out, "MissingRequiredField")

	store, err := accounts.Load(dir)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
	a, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "1004", a.AccountNumber)
	assert.Equal(t, "Checker 1", string(a.CurrentStage))
}

func TestIngest_DeclinedPromptDiscards(t *testing.T) {
	dir := newWorkspace(t)
	path := writeUpload(t, t.TempDir(), "upload.csv",
		uploadHeader,
		[]string{"1001", "Cash", "Finance", "Assets"},
	)

	out, err := runFinsight(t, "n\n", "-w", dir, "ingest", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Import 1 account(s) from upload.csv? [y/N]")
	assert.Contains(t, out, "Discarded upload.csv.")

	store, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestIngest_ConfirmedPromptCommits(t *testing.T) {
	dir := newWorkspace(t)
	path := writeUpload(t, t.TempDir(), "upload.csv",
		uploadHeader,
		[]string{"1001", "Cash", "Finance", "Assets"},
	)

	out, err := runFinsight(t, "y\n", "-w", dir, "ingest", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 1 account(s) from upload.csv.")
}

func TestIngest_UnsupportedFile(t *testing.T) {
	dir := newWorkspace(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	out, err := runFinsight(t, "", "-w", dir, "ingest", "--yes", path)
	require.Error(t, err)
	assert.Contains(t, out, "UnsupportedFileType")
	assert.Contains(t, out, "1 file(s) could not be imported")
}

func TestIngest_Inbox(t *testing.T) {
	dir := newWorkspace(t)
	writeUpload(t, filepath.Join(dir, "inbox"), "batch.csv",
		uploadHeader,
		[]string{"2001", "Inventory", "Ops", "Assets"},
	)

	out, err := runFinsight(t, "", "-w", dir, "ingest", "--inbox", "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 1 account(s) from batch.csv.")

	_, err = os.Stat(filepath.Join(dir, "inbox", "processed", "batch.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "inbox", "batch.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestIngest_InboxLeavesFileWithoutValidRows(t *testing.T) {
	dir := newWorkspace(t)
	writeUpload(t, filepath.Join(dir, "inbox"), "broken.csv",
		uploadHeader,
		[]string{"3001", "", "Ops", "Assets"},
		[]string{"3002", "Stock", "", "Assets"},
	)

	out, err := runFinsight(t, "", "-w", dir, "ingest", "--inbox", "--yes")
	require.Error(t, err)
	assert.Contains(t, out, "No valid rows in broken.csv; nothing imported.")
	assert.Contains(t, out, "1 file(s) could not be imported")

	_, err = os.Stat(filepath.Join(dir, "inbox", "broken.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "inbox", "processed", "broken.csv"))
	assert.True(t, os.IsNotExist(err))

	store, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}

func TestIngest_NoArgs(t *testing.T) {
	dir := newWorkspace(t)
	out, err := runFinsight(t, "", "-w", dir, "ingest")
	require.Error(t, err)
	assert.Contains(t, out, "no files given")
}

func TestCommands_OutsideWorkspace(t *testing.T) {
	out, err := runFinsight(t, "", "-w", t.TempDir(), "accounts", "list")
	require.Error(t, err)
	assert.Contains(t, out, "not a finsight workspace")
}
