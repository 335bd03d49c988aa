package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/finsight-dev/finsight/internal/importer"
)

// ErrNoQualifyingHeader means no scanned row looked like an account header.
var ErrNoQualifyingHeader = errors.New("no qualifying header row found")

// ResolverOptions are the thresholds of the header heuristic.
type ResolverOptions struct {
	ScanRows       int     // rows per sheet considered as header candidates
	MinMatchRatio  float64 // score/validHeaders must exceed this
	PreferredSheet string  // tie-break: sheet names containing this win
}

// DefaultResolverOptions scans ten rows, requires a majority match and prefers "summary" sheets.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{ScanRows: 10, MinMatchRatio: 0.5, PreferredSheet: "summary"}
}

// Resolution locates the header row inside a workbook.
type Resolution struct {
	SheetIndex   int
	SheetName    string
	HeaderRow    int // 0-based index into the sheet's rows
	Headers      []string
	Score        int
	ValidHeaders int
	Warnings     []string
}

// RowScore is the header heuristic evaluated on one row.
type RowScore struct {
	Score        int // cells matching an alias
	ValidHeaders int // non-blank, non-placeholder cells
	Matched      map[Field]bool
}

// Qualifies reports whether the row covers every required field and clears the ratio.
func (s RowScore) Qualifies(minRatio float64) bool {
	for _, f := range RequiredFields {
		if !s.Matched[f] {
			return false
		}
	}
	if s.ValidHeaders == 0 {
		return false
	}
	return float64(s.Score)/float64(s.ValidHeaders) > minRatio
}

// ScoreRow evaluates row as a header candidate.
func ScoreRow(row []string, aliases *AliasTable) RowScore {
	rs := RowScore{Matched: make(map[Field]bool)}
	for _, cell := range row {
		if isBlankOrPlaceholder(cell) {
			continue
		}
		rs.ValidHeaders++
		if f, ok := aliases.Match(cell); ok {
			rs.Score++
			rs.Matched[f] = true
		}
	}
	return rs
}

// ResolveHeader scans the first opts.ScanRows rows of each sheet and returns
// the best qualifying header row. Highest score wins; ties go to a sheet whose
// name contains opts.PreferredSheet, then to the first one encountered.
func ResolveHeader(wb *importer.Workbook, aliases *AliasTable, opts ResolverOptions) (Resolution, error) {
	if opts.ScanRows <= 0 {
		opts.ScanRows = DefaultResolverOptions().ScanRows
	}

	var best *Resolution
	for si, sheet := range wb.Sheets {
		limit := min(opts.ScanRows, len(sheet.Rows))
		for ri := 0; ri < limit; ri++ {
			rs := ScoreRow(sheet.Rows[ri], aliases)
			if !rs.Qualifies(opts.MinMatchRatio) {
				continue
			}
			cand := Resolution{
				SheetIndex:   si,
				SheetName:    sheet.Name,
				HeaderRow:    ri,
				Headers:      sheet.Rows[ri],
				Score:        rs.Score,
				ValidHeaders: rs.ValidHeaders,
			}
			if best == nil || beats(cand, *best, opts.PreferredSheet) {
				best = &cand
			}
		}
	}

	if best == nil {
		return Resolution{}, fmt.Errorf("%w in the first %d rows of %d sheet(s)",
			ErrNoQualifyingHeader, opts.ScanRows, len(wb.Sheets))
	}
	if len(wb.Sheets) > 1 {
		best.Warnings = append(best.Warnings, fmt.Sprintf(
			"workbook has %d sheets; using sheet %q (header on row %d)",
			len(wb.Sheets), best.SheetName, best.HeaderRow+1))
	}
	return *best, nil
}

func beats(cand, best Resolution, preferred string) bool {
	if cand.Score != best.Score {
		return cand.Score > best.Score
	}
	return isPreferredSheet(cand.SheetName, preferred) && !isPreferredSheet(best.SheetName, preferred)
}

func isPreferredSheet(name, preferred string) bool {
	if preferred == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(preferred))
}

// isBlankOrPlaceholder matches empty cells and the column names spreadsheet
// tools invent for unnamed columns (__EMPTY_3, Unnamed: 4, Column7, Field2).
func isBlankOrPlaceholder(cell string) bool {
	s := strings.ToLower(strings.TrimSpace(cell))
	if s == "" || strings.HasPrefix(s, "__empty") || strings.HasPrefix(s, "unnamed:") {
		return true
	}
	for _, prefix := range []string{"column", "field"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok && rest != "" && isDigits(strings.TrimSpace(rest)) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
