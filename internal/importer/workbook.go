package importer

import "strings"

// Sheet is one tab of a workbook as raw cell text.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is an ordered list of sheets.
type Workbook struct {
	Sheets []Sheet
}

// IsBlankRow reports whether every cell in row is whitespace.
func IsBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no sheet has a non-blank row.
func (w *Workbook) IsEmpty() bool {
	if w == nil {
		return true
	}
	for _, s := range w.Sheets {
		for _, row := range s.Rows {
			if !IsBlankRow(row) {
				return false
			}
		}
	}
	return true
}
