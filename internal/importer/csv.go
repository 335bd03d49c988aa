package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// CSVReader reads a comma-separated export as a single-sheet workbook.
type CSVReader struct{}

// Extension returns the file extension handled by the reader.
func (r *CSVReader) Extension() string { return ".csv" }

// Read parses every record; rows may have differing lengths.
func (r *CSVReader) Read(in io.Reader, sheetName string) (*Workbook, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return &Workbook{Sheets: []Sheet{{Name: sheetName, Rows: records}}}, nil
}
