package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SheetRows names a sheet and its rows for BuildXLSX.
type SheetRows struct {
	Name string
	Rows [][]string
}

// BuildXLSX returns the bytes of a workbook containing the given sheets in order.
func BuildXLSX(t testing.TB, sheets ...SheetRows) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("new sheet %s: %v", s.Name, err)
		}
		for r, row := range s.Rows {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = v
			}
			axis := fmt.Sprintf("A%d", r+1)
			if err := f.SetSheetRow(s.Name, axis, &cells); err != nil {
				t.Fatalf("set row %s!%s: %v", s.Name, axis, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// CSV joins rows into comma-separated text. Cells must not need quoting.
func CSV(rows ...[]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// StandardHeader is a header row using the most common export column names.
var StandardHeader = []string{
	"BS/PL", "Status", "G/L Acct", "G/L Account Number", "Main Head", "Sub head",
	"Responsible Department", "Departement SPOC", "Departement Reviewer",
}

// StandardRow builds a data row matching StandardHeader.
func StandardRow(number, name, dept string) []string {
	return []string{"BS", "Assets", name, number, "Current Assets", "Cash", dept, "Sam", "Rita"}
}
