package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/finsight-dev/finsight/internal/model"
	"github.com/finsight-dev/finsight/internal/report"
)

func newReportCommand(root *rootOptions) *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize review progress and department quality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := root.open(cmd)
			if err != nil {
				return err
			}
			all := ws.Store.All()
			s := report.Summarize(all, ws.Thresholds)
			out := cmd.OutOrStdout()

			printTable(out, []string{"Total", "Finalized", "Pending", "Mistakes"}, [][]string{{
				strconv.Itoa(s.Total), strconv.Itoa(s.Finalized), strconv.Itoa(s.Pending), strconv.Itoa(s.TotalMistakes),
			}}, alignRight, alignRight, alignRight, alignRight)

			var stageRows [][]string
			for _, label := range s.StageOrder(ws.Stages.Roles()) {
				stageRows = append(stageRows, []string{label, strconv.Itoa(s.ByStage[label])})
			}
			printTable(out, []string{"Stage", "Accounts"}, stageRows, alignLeft, alignRight)

			var statusRows [][]string
			for _, st := range []model.ReviewStatus{model.StatusPending, model.StatusMismatch, model.StatusFinalized} {
				statusRows = append(statusRows, []string{string(st), strconv.Itoa(s.ByStatus[st])})
			}
			printTable(out, []string{"Review Status", "Accounts"}, statusRows, alignLeft, alignRight)

			if len(s.Departments) > 0 {
				rows := make([][]string, len(s.Departments))
				for i, d := range s.Departments {
					rows[i] = []string{d.Department, strconv.Itoa(d.Accounts), strconv.Itoa(d.Mistakes),
						d.MistakeRate.StringFixed(2), string(d.Priority)}
				}
				printTable(out, []string{"Department", "Accounts", "Mistakes", "Rate", "Priority"}, rows,
					alignLeft, alignRight, alignRight, alignRight, alignLeft)
			}

			if export == "" {
				return nil
			}
			f, err := os.Create(export)
			if err != nil {
				return fmt.Errorf("creating export: %w", err)
			}
			defer f.Close()
			if err := report.ExportXLSX(f, all, s); err != nil {
				return err
			}
			fmt.Fprintf(out, "Exported %d account(s) to %s\n", len(all), export)
			return nil
		},
	}

	cmd.Flags().StringVar(&export, "export", "", "also write the report to this .xlsx file")

	return cmd
}
