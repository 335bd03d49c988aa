package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finsight-dev/finsight/internal/ingest"
	"github.com/finsight-dev/finsight/internal/workspace"
)

func newIngestCommand(root *rootOptions) *cobra.Command {
	var fromInbox bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Import GL accounts from .xlsx or .csv files",
		Long: "Parses each file, shows a preview of the detected sheet, header row and\n" +
			"column mapping, and imports the valid rows after confirmation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fromInbox && len(args) == 0 {
				return errors.New("no files given (pass files or --inbox)")
			}

			ws, release, err := root.openLocked(cmd)
			if err != nil {
				return err
			}
			defer release()

			r := &ingestRun{
				ws:  ws,
				out: cmd.OutOrStdout(),
				in:  bufio.NewReader(cmd.InOrStdin()),
				yes: yes,
			}
			if fromInbox {
				err = r.inbox(cmd.Context())
			} else {
				err = r.files(cmd.Context(), args)
			}
			if saveErr := r.save(); saveErr != nil {
				return saveErr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&fromInbox, "inbox", false, "import every file waiting in inbox/")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "import without asking for confirmation")

	return cmd
}

type ingestRun struct {
	ws  *workspace.Workspace
	out io.Writer
	in  *bufio.Reader
	yes bool

	committed []string
	accepted  int
	failed    int
}

func (r *ingestRun) files(ctx context.Context, paths []string) error {
	for _, p := range paths {
		pv, err := prepareFile(ctx, r.ws.Pipeline, p)
		if err != nil {
			r.reportFailure(filepath.Base(p), err)
			continue
		}
		if _, err := r.confirmAndCommit(pv); err != nil {
			return err
		}
	}
	return r.failure()
}

func (r *ingestRun) inbox(ctx context.Context) error {
	items, err := r.ws.Pipeline.PrepareInbox(ctx, r.ws.Root)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(r.out, "Inbox is empty.")
		return nil
	}
	for _, item := range items {
		if item.Err != nil {
			r.reportFailure(item.File.Name, item.Err)
			continue
		}
		ok, err := r.confirmAndCommit(item.Preview)
		if err != nil {
			return err
		}
		if ok {
			if err := r.ws.MarkProcessed(item.File.Name); err != nil {
				return err
			}
		}
	}
	return r.failure()
}

func prepareFile(ctx context.Context, p *ingest.Pipeline, path string) (*ingest.Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return p.Prepare(ctx, filepath.Base(path), f)
}

// confirmAndCommit shows the preview, asks for confirmation and commits.
// It reports whether the preview was committed. A preview without valid rows
// is discarded and counted as a failure, so its file stays in the inbox.
func (r *ingestRun) confirmAndCommit(pv *ingest.Preview) (bool, error) {
	printPreview(r.out, pv)

	if len(pv.Candidates) == 0 {
		pv.Discard()
		r.failed++
		fmt.Fprintf(r.out, "No valid rows in %s; nothing imported.\n\n", pv.FileName)
		return false, nil
	}
	if !r.yes {
		fmt.Fprintf(r.out, "Import %d account(s) from %s? [y/N] ", len(pv.Candidates), pv.FileName)
		answer, _ := r.in.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			pv.Discard()
			fmt.Fprintf(r.out, "Discarded %s.\n\n", pv.FileName)
			return false, nil
		}
	}

	res, err := r.ws.Pipeline.Commit(pv, r.ws.Store)
	if err != nil {
		return false, err
	}
	printResult(r.out, res, len(pv.Errors))
	r.committed = append(r.committed, pv.FileName)
	r.accepted += res.AcceptedCount
	return true, nil
}

func (r *ingestRun) reportFailure(name string, err error) {
	r.failed++
	if fe, ok := ingest.IsFileError(err); ok {
		fmt.Fprintf(r.out, "%s: %s (row %d): %v\n\n", name, fe.Kind, fe.Row(), fe.Err)
		return
	}
	fmt.Fprintf(r.out, "%s: %v\n\n", name, err)
}

func (r *ingestRun) failure() error {
	if r.failed > 0 {
		return fmt.Errorf("%d file(s) could not be imported", r.failed)
	}
	return nil
}

func (r *ingestRun) save() error {
	if len(r.committed) == 0 {
		return nil
	}
	msg := fmt.Sprintf("ingest: %s (%d accounts)", strings.Join(r.committed, ", "), r.accepted)
	if _, err := r.ws.Save(msg); err != nil {
		return err
	}
	return nil
}

func printPreview(w io.Writer, pv *ingest.Preview) {
	fmt.Fprintf(w, "File:       %s\n", pv.FileName)
	fmt.Fprintf(w, "Sheet:      %s\n", pv.SheetName)
	fmt.Fprintf(w, "Header row: %d\n", pv.HeaderRow)
	fmt.Fprintf(w, "Data rows:  %d (%d valid)\n", pv.TotalRows, len(pv.Candidates))

	headers := make([]string, len(pv.Columns))
	for i, c := range pv.Columns {
		if c.Mapped {
			headers[i] = c.Header + " -> " + string(c.Field)
		} else {
			headers[i] = c.Header + " (ignored)"
		}
	}
	printTable(w, headers, pv.Sample)

	for _, warn := range pv.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	printUploadErrors(w, pv.Errors)
}

// printResult summarizes a commit. Errors are listed again only when the
// commit found collisions the preview did not show.
func printResult(w io.Writer, res ingest.Result, previewErrors int) {
	switch res.Outcome() {
	case ingest.OutcomeComplete:
		fmt.Fprintf(w, "Imported %d account(s) from %s.\n", res.AcceptedCount, res.FileName)
	case ingest.OutcomePartial:
		fmt.Fprintf(w, "Imported %d account(s) from %s; %d error(s) reported.\n",
			res.AcceptedCount, res.FileName, len(res.Errors))
	default:
		fmt.Fprintf(w, "No accounts imported from %s.\n", res.FileName)
	}
	if len(res.Accepted) > 0 {
		first, last := res.Accepted[0].ID, res.Accepted[len(res.Accepted)-1].ID
		fmt.Fprintf(w, "Assigned IDs #%d-#%d.\n", first, last)
	}
	if len(res.Errors) > previewErrors {
		printUploadErrors(w, res.Errors)
	}
	fmt.Fprintln(w)
}

func printUploadErrors(w io.Writer, errs []ingest.UploadError) {
	if len(errs) == 0 {
		return
	}
	rows := make([][]string, len(errs))
	for i, e := range errs {
		rows[i] = []string{strconv.Itoa(e.Row), string(e.Kind), e.Message}
	}
	printTable(w, []string{"Row", "Error", "Message"}, rows, alignRight)
}
