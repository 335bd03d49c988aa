package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads every sheet of an Excel workbook.
type XLSXReader struct{}

// Extension returns the file extension handled by the reader.
func (r *XLSXReader) Extension() string { return ".xlsx" }

// Read loads all sheets in workbook order. sheetName is unused; tabs keep their own names.
func (r *XLSXReader) Read(in io.Reader, _ string) (*Workbook, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}
