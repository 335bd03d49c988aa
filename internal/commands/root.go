package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/finsight-dev/finsight/internal/buildinfo"
	"github.com/finsight-dev/finsight/internal/workspace"
)

type rootOptions struct {
	workspace string
	logLevel  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "finsight",
		Short:   "GL account review workflow and spreadsheet ingestion",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.workspace, "workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(),
		newIngestCommand(opts),
		newAccountsCommand(opts),
		newApproveCommand(opts),
		newRejectCommand(opts),
		newHistoryCommand(opts),
		newReportCommand(opts),
		newAskCommand(opts),
	)

	return rootCmd
}

func (o *rootOptions) open(cmd *cobra.Command) (*workspace.Workspace, error) {
	dir, err := filepath.Abs(o.workspace)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return workspace.Open(dir, workspace.Options{
		LogLevel:  o.logLevel,
		LogOutput: cmd.ErrOrStderr(),
	})
}

// openLocked opens the workspace and takes the writer lock. The returned
// release func must be called when done.
func (o *rootOptions) openLocked(cmd *cobra.Command) (*workspace.Workspace, func(), error) {
	ws, err := o.open(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := ws.Lock(); err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := ws.Unlock(); err != nil {
			ws.Logger.WithError(err).Warn("failed to release workspace lock")
		}
	}
	return ws, release, nil
}
