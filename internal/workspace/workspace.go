package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/finsight-dev/finsight/internal/accounts"
	"github.com/finsight-dev/finsight/internal/assistant"
	"github.com/finsight-dev/finsight/internal/config"
	"github.com/finsight-dev/finsight/internal/gitops"
	"github.com/finsight-dev/finsight/internal/importer"
	"github.com/finsight-dev/finsight/internal/ingest"
	"github.com/finsight-dev/finsight/internal/logging"
	"github.com/finsight-dev/finsight/internal/model"
	"github.com/finsight-dev/finsight/internal/report"
	"github.com/finsight-dev/finsight/internal/workflow"
)

const (
	// LockFile guards a workspace against concurrent writers.
	LockFile = ".finsight.lock"
	// EnvFile holds secrets such as the assistant API key.
	EnvFile = ".env"
)

var (
	// ErrNotWorkspace is returned when root has no finsight.yaml.
	ErrNotWorkspace = errors.New("not a finsight workspace (run 'finsight init')")
	// ErrLocked is returned when another process holds the workspace lock.
	ErrLocked = errors.New("workspace is locked by another finsight process")
	// ErrUnknownUser is returned for names not listed under users in finsight.yaml.
	ErrUnknownUser = errors.New("unknown user")
)

// Options adjust how a workspace is opened.
type Options struct {
	LogLevel  string    // overrides logging.level when set
	LogOutput io.Writer // defaults to os.Stderr
	Now       func() time.Time
}

// Workspace is an opened workspace directory with every engine wired to it.
type Workspace struct {
	Root       string
	Config     *config.Config
	Logger     *logrus.Logger
	Store      *accounts.Store
	Stages     workflow.Sequence
	Engine     *workflow.Engine
	Pipeline   *ingest.Pipeline
	Assistant  *assistant.Assistant
	Thresholds report.Thresholds

	lock *flock.Flock
}

// Open loads finsight.yaml, .env and the account snapshots under root.
func Open(root string, opts Options) (*Workspace, error) {
	cfgPath := filepath.Join(root, config.FileName)
	if _, err := os.Stat(cfgPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, ErrNotWorkspace)
		}
		return nil, fmt.Errorf("checking workspace: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if err := loadEnv(filepath.Join(root, EnvFile)); err != nil {
		return nil, err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(level, cfg.Logging.Format, out)
	if err != nil {
		return nil, err
	}

	stages, err := workflow.NewSequence(cfg.Workflow.Stages)
	if err != nil {
		return nil, fmt.Errorf("workflow.stages: %w", err)
	}

	aliases, err := ingest.DefaultAliases().WithExtra(cfg.Ingestion.ExtraAliases)
	if err != nil {
		return nil, fmt.Errorf("ingestion.extra_aliases: %w", err)
	}

	store, err := accounts.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ws := &Workspace{
		Root:   root,
		Config: cfg,
		Logger: logger,
		Store:  store,
		Stages: stages,
		Engine: workflow.NewEngine(stages, store,
			workflow.WithClock(now),
			workflow.WithLogger(logger.WithField("component", "workflow"))),
		Pipeline: ingest.NewPipeline(stages.First(),
			ingest.WithAliases(aliases),
			ingest.WithResolverOptions(ingest.ResolverOptions{
				ScanRows:       cfg.Ingestion.HeaderScanRows,
				MinMatchRatio:  cfg.Ingestion.MinMatchRatio,
				PreferredSheet: cfg.Ingestion.PreferredSheet,
			}),
			ingest.WithPreviewRows(cfg.Ingestion.PreviewRows),
			ingest.WithConcurrency(cfg.Ingestion.ParseConcurrency),
			ingest.WithClock(now),
			ingest.WithLogger(logger.WithField("component", "ingest"))),
		Thresholds: report.Thresholds{
			Critical: cfg.Reporting.CriticalMistakes,
			Medium:   cfg.Reporting.MediumMistakes,
		},
		lock: flock.New(filepath.Join(root, LockFile)),
	}

	client := assistant.NewClient(assistant.Config{
		APIKey:         os.Getenv(cfg.Assistant.APIKeyEnv),
		BaseURL:        cfg.Assistant.BaseURL,
		Model:          cfg.Assistant.Model,
		TimeoutSeconds: cfg.Assistant.TimeoutSeconds,
	})
	if !client.Configured() {
		logger.WithField("env", cfg.Assistant.APIKeyEnv).Debug("assistant API key not set; chat disabled")
	}
	ws.Assistant = assistant.New(client, logger.WithField("component", "assistant"))

	return ws, nil
}

func loadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", EnvFile, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", EnvFile, err)
	}
	return nil
}

// Lock takes the single-writer lock without blocking and reloads the account
// snapshots, so changes saved by the previous lock holder are not overwritten.
func (w *Workspace) Lock() error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	if err := w.Store.Reload(w.Root); err != nil {
		if uerr := w.lock.Unlock(); uerr != nil {
			w.Logger.WithError(uerr).Warn("failed to release workspace lock")
		}
		return fmt.Errorf("reloading accounts: %w", err)
	}
	return nil
}

// Unlock releases the single-writer lock.
func (w *Workspace) Unlock() error {
	return w.lock.Unlock()
}

// User resolves a configured user by name.
func (w *Workspace) User(name string) (model.User, error) {
	u, ok := w.Config.FindUser(name)
	if !ok {
		return model.User{}, fmt.Errorf("%w %q", ErrUnknownUser, name)
	}
	return model.User{Name: strings.TrimSpace(u.Name), Role: model.Role(strings.TrimSpace(u.Role))}, nil
}

// Save writes the account snapshots and, when git.auto_commit is set and the
// workspace is a git repository, commits them. Returns the commit hash or "".
func (w *Workspace) Save(message string) (string, error) {
	if err := w.Store.Save(w.Root); err != nil {
		return "", fmt.Errorf("saving accounts: %w", err)
	}
	if !w.Config.Git.AutoCommit || !gitops.IsRepo(w.Root) {
		return "", nil
	}
	hash, err := gitops.CommitAll(w.Root, message, w.Config.Git.AuthorName, w.Config.Git.AuthorEmail)
	if err != nil {
		logging.LogError(w.Logger, "workspace", "commit", message, err)
		return "", err
	}
	if hash != "" {
		w.Logger.WithFields(logrus.Fields{"commit": hash, "message": message}).Debug("committed workspace")
	}
	return hash, nil
}

// MarkProcessed moves an inbox file to inbox/processed/.
func (w *Workspace) MarkProcessed(fileName string) error {
	return importer.MarkProcessed(w.Root, fileName)
}
