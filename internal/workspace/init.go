package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/finsight-dev/finsight/internal/accounts"
	"github.com/finsight-dev/finsight/internal/config"
	"github.com/finsight-dev/finsight/internal/gitops"
	"github.com/finsight-dev/finsight/internal/importer"
)

const gitignore = LockFile + "\n" + EnvFile + "\n" + "exports/\n"

// Init lays out a new workspace in dir and, when git is available, makes the
// initial commit. Returns the commit hash or "".
func Init(dir, name string, out io.Writer) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return "", fmt.Errorf("%s already contains %s", dir, config.FileName)
	}

	for _, d := range []string{"accounts", "logs", importer.InboxDir, importer.ProcessedDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name)
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return "", err
	}

	if err := accounts.NewStore(nil).Save(dir); err != nil {
		return "", fmt.Errorf("writing account snapshots: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}
	for _, d := range []string{importer.InboxDir, importer.ProcessedDir} {
		if err := os.WriteFile(filepath.Join(dir, d, ".gitkeep"), []byte{}, 0o644); err != nil {
			return "", fmt.Errorf("writing %s/.gitkeep: %w", d, err)
		}
	}

	if !gitops.Available() || gitops.IsRepo(dir) {
		return "", nil
	}
	if err := gitops.Init(dir, out); err != nil {
		return "", err
	}
	hash, err := gitops.CommitAll(dir, "init: "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}
