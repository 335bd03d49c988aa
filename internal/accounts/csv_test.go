package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-dev/finsight/internal/model"
)

func sampleAccount(id int, number string) model.Account {
	return model.Account{
		ID:             id,
		AccountNumber:  number,
		AccountName:    "Cash at Bank",
		Department:     "Finance",
		BSPL:           "BS",
		StatusCategory: model.CategoryAssets,
		MainHead:       "Current Assets",
		SubHead:        "Cash",
		SPOC:           "Sam",
		Reviewer:       "Rita",
		ReviewStatus:   model.StatusPending,
		CurrentStage:   "Checker 1",
	}
}

func TestRoundTrip(t *testing.T) {
	finalized := sampleAccount(2, "2000-10")
	finalized.AccountName = "Accrued, \"Other\" Liabilities"
	finalized.StatusCategory = model.CategoryLiabilities
	finalized.ReviewStatus = model.StatusFinalized
	finalized.CurrentStage = ""
	finalized.MistakeCount = 3

	accounts := []model.Account{sampleAccount(1, "1000-10"), finalized}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, accounts, got)
	assert.True(t, got[1].IsFinalized())
}

func TestReadAccountsHeaderOnly(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(strings.Join(Header, ",") + "\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnmarshalAccountErrors(t *testing.T) {
	valid := MarshalAccount(sampleAccount(1, "1000-10"))

	tests := []struct {
		name   string
		mutate func(row []string)
		want   string
	}{
		{"bad id", func(r []string) { r[colID] = "x" }, "account_id"},
		{"bad status", func(r []string) { r[colReviewStatus] = "Done" }, "review_status"},
		{"bad category", func(r []string) { r[colStatusCategory] = "Income" }, "status_category"},
		{"negative mistakes", func(r []string) { r[colMistakeCount] = "-1" }, "mistake_count"},
		{"stage without status", func(r []string) { r[colCurrentStage] = "" }, "inconsistent"},
		{"finalized with stage", func(r []string) { r[colReviewStatus] = "Finalized" }, "inconsistent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := append([]string(nil), valid...)
			tt.mutate(row)
			_, err := UnmarshalAccount(row)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := UnmarshalAccount(valid[:5])
	assert.ErrorContains(t, err, "expected 13 fields")
}
