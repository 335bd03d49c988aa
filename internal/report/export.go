package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/finsight-dev/finsight/internal/ingest"
	"github.com/finsight-dev/finsight/internal/model"
)

// Sheet names written by ExportXLSX.
const (
	AccountsSheet    = "Accounts"
	DepartmentsSheet = "Departments"
)

var reviewColumns = []string{"Review Status", "Current Stage", "Mistake Count", "Account ID"}

// AccountHeaders is the Accounts sheet header: the display name of every
// canonical field, so an export can be ingested again, then review columns.
func AccountHeaders() []string {
	aliases := ingest.DefaultAliases()
	out := make([]string, 0, len(ingest.Fields)+len(reviewColumns))
	for _, f := range ingest.Fields {
		out = append(out, aliases.DisplayName(f))
	}
	return append(out, reviewColumns...)
}

func accountRow(a model.Account) []any {
	values := map[ingest.Field]string{
		ingest.FieldAccountNumber:  a.AccountNumber,
		ingest.FieldAccountName:    a.AccountName,
		ingest.FieldDepartment:     a.Department,
		ingest.FieldBSPL:           a.BSPL,
		ingest.FieldStatusCategory: string(a.StatusCategory),
		ingest.FieldMainHead:       a.MainHead,
		ingest.FieldSubHead:        a.SubHead,
		ingest.FieldSPOC:           a.SPOC,
		ingest.FieldReviewer:       a.Reviewer,
	}
	row := make([]any, 0, len(ingest.Fields)+len(reviewColumns))
	for _, f := range ingest.Fields {
		row = append(row, values[f])
	}
	return append(row, string(a.ReviewStatus), a.StageLabel(), a.MistakeCount, a.ID)
}

// ExportXLSX writes the accounts and department metrics as a workbook.
func ExportXLSX(w io.Writer, accounts []model.Account, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AccountsSheet); err != nil {
		return fmt.Errorf("naming accounts sheet: %w", err)
	}
	rows := make([][]any, 0, len(accounts)+1)
	rows = append(rows, toAny(AccountHeaders()))
	for _, a := range accounts {
		rows = append(rows, accountRow(a))
	}
	if err := writeSheet(f, AccountsSheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(DepartmentsSheet); err != nil {
		return fmt.Errorf("creating departments sheet: %w", err)
	}
	rows = [][]any{{"Department", "Accounts", "Mistakes", "Mistake Rate", "Priority"}}
	for _, d := range s.Departments {
		rows = append(rows, []any{d.Department, d.Accounts, d.Mistakes, d.MistakeRate.InexactFloat64(), string(d.Priority)})
	}
	rows = append(rows, []any{}, []any{"Total", s.Total, s.TotalMistakes})
	if err := writeSheet(f, DepartmentsSheet, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
