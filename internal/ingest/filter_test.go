package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDuplicates(t *testing.T) {
	rows := []DataRow{
		{Number: 2, Cells: []string{"1000-00"}},
		{Number: 3, Cells: []string{"1000-10"}},
		{Number: 4, Cells: []string{" 1000-10 "}},
		{Number: 5, Cells: []string{""}},
		{Number: 6, Cells: []string{""}},
		{Number: 8, Cells: []string{"2000"}},
		{Number: 9, Cells: []string{"2000"}},
		{Number: 10, Cells: []string{"2000"}},
	}

	errs, excluded := FindDuplicates(rows, 0, DefaultAliases())
	require.Len(t, errs, 2)

	assert.Equal(t, 3, errs[0].Row)
	assert.Equal(t, KindDuplicateAccountNumber, errs[0].Kind)
	assert.Equal(t, "Duplicate G/L Account Number '1000-10' found on rows: 3, 4. These rows were not imported.", errs[0].Message)
	assert.Equal(t, "Account: 1000-10", errs[0].Context)

	assert.Equal(t, 8, errs[1].Row)
	assert.Contains(t, errs[1].Message, "rows: 8, 9, 10")

	assert.Equal(t, map[int]bool{3: true, 4: true, 8: true, 9: true, 10: true}, excluded)
}

func TestMissingRequired(t *testing.T) {
	assert.Empty(t, MissingRequired(map[Field]string{
		FieldAccountNumber: "1", FieldAccountName: "n", FieldDepartment: "d",
	}))
	assert.Equal(t, []Field{FieldAccountNumber, FieldDepartment}, MissingRequired(map[Field]string{
		FieldAccountName: "n", FieldDepartment: " ",
	}))
}

func TestMissingFieldError(t *testing.T) {
	headers := []string{"G/L Account Number", "G/L Acct", "Dept", ""}
	row := DataRow{Number: 7, Cells: []string{"", "Cash", "", "stray"}}

	err := missingFieldError(row, headers, []Field{FieldAccountNumber, FieldDepartment}, DefaultAliases())
	assert.Equal(t, 7, err.Row)
	assert.Equal(t, KindMissingRequiredField, err.Kind)
	assert.Equal(t, "Missing values in required columns (G/L Account Number, Responsible Department).", err.Message)
	assert.Equal(t, "row 7: "+err.Message, err.Error())

	var ctx map[string]string
	require.NoError(t, json.Unmarshal([]byte(err.Context), &ctx))
	assert.Equal(t, map[string]string{"G/L Acct": "Cash"}, ctx)
}
