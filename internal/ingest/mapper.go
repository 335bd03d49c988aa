package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/finsight-dev/finsight/internal/model"
)

// ColumnMapping marks how one header cell was interpreted.
type ColumnMapping struct {
	Index  int
	Header string
	Field  Field
	Mapped bool
}

// DataRow is a sheet row below the header with its spreadsheet row number.
type DataRow struct {
	Number int
	Cells  []string
}

// Cell returns the trimmed value at column i, or "" past the end of a short row.
func (r DataRow) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// MapHeaders binds each header cell to a canonical field. Unknown headers are
// kept unmapped; when two columns alias the same field the leftmost wins.
func MapHeaders(headers []string, aliases *AliasTable) ([]ColumnMapping, []string) {
	cols := make([]ColumnMapping, len(headers))
	taken := make(map[Field]int)
	var warnings []string
	for i, h := range headers {
		cols[i] = ColumnMapping{Index: i, Header: strings.TrimSpace(h)}
		f, ok := aliases.Match(h)
		if !ok {
			continue
		}
		if first, dup := taken[f]; dup {
			warnings = append(warnings, fmt.Sprintf(
				"column %q also maps to %s; using column %q", cols[i].Header, f, cols[first].Header))
			continue
		}
		taken[f] = i
		cols[i].Field = f
		cols[i].Mapped = true
	}
	return cols, warnings
}

// ColumnFor returns the index of the column mapped to f, or -1.
func ColumnFor(cols []ColumnMapping, f Field) int {
	for _, c := range cols {
		if c.Mapped && c.Field == f {
			return c.Index
		}
	}
	return -1
}

// RowValues copies the mapped, non-empty cells of row keyed by field.
func RowValues(row DataRow, cols []ColumnMapping) map[Field]string {
	values := make(map[Field]string)
	for _, c := range cols {
		if !c.Mapped {
			continue
		}
		if v := row.Cell(c.Index); v != "" {
			values[c.Field] = v
		}
	}
	return values
}

// BuildAccount fills an account from mapped values, applying defaults for
// optional fields. coerced reports a status category that was replaced by Assets.
// ID, stage and audit log are assigned when the batch is committed.
func BuildAccount(values map[Field]string) (acct model.Account, coerced bool) {
	acct = model.Account{
		AccountNumber:  values[FieldAccountNumber],
		AccountName:    values[FieldAccountName],
		Department:     values[FieldDepartment],
		BSPL:           orDefault(values[FieldBSPL], model.DefaultBSPL),
		StatusCategory: model.CategoryAssets,
		MainHead:       orDefault(values[FieldMainHead], model.DefaultHead),
		SubHead:        orDefault(values[FieldSubHead], model.DefaultHead),
		SPOC:           orDefault(values[FieldSPOC], model.DefaultAssignee),
		Reviewer:       orDefault(values[FieldReviewer], model.DefaultAssignee),
		ReviewStatus:   model.StatusPending,
	}
	if raw, ok := values[FieldStatusCategory]; ok {
		if c, valid := model.ParseStatusCategory(raw); valid {
			acct.StatusCategory = c
		} else {
			coerced = true
		}
	}
	return acct, coerced
}

// IngestionEntry is the first audit entry of every imported account.
func IngestionEntry(firstStage model.Role, at time.Time) model.AuditEntry {
	return model.AuditEntry{
		Timestamp: at,
		User:      model.SystemUser.Name,
		Role:      model.SystemUser.Role,
		Action:    model.IngestionAction,
		From:      model.NotApplicable,
		To:        string(firstStage),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
