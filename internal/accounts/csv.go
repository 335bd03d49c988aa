package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/finsight-dev/finsight/internal/model"
)

const (
	numFields         = 13
	colID             = 0
	colNumber         = 1
	colName           = 2
	colDepartment     = 3
	colBSPL           = 4
	colStatusCategory = 5
	colMainHead       = 6
	colSubHead        = 7
	colSPOC           = 8
	colReviewer       = 9
	colReviewStatus   = 10
	colCurrentStage   = 11
	colMistakeCount   = 12
)

// Header is the CSV header for accounts.csv.
var Header = []string{
	"account_id", "account_number", "account_name", "department", "bs_pl", "status_category",
	"main_head", "sub_head", "spoc", "reviewer", "review_status", "current_stage", "mistake_count",
}

// ReadAccounts reads accounts.csv. Audit logs are stored separately.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row. A finalized account has an empty stage.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.Itoa(acct.ID)
	row[colNumber] = acct.AccountNumber
	row[colName] = acct.AccountName
	row[colDepartment] = acct.Department
	row[colBSPL] = acct.BSPL
	row[colStatusCategory] = string(acct.StatusCategory)
	row[colMainHead] = acct.MainHead
	row[colSubHead] = acct.SubHead
	row[colSPOC] = acct.SPOC
	row[colReviewer] = acct.Reviewer
	row[colReviewStatus] = string(acct.ReviewStatus)
	row[colCurrentStage] = string(acct.CurrentStage)
	row[colMistakeCount] = strconv.Itoa(acct.MistakeCount)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.Atoi(record[colID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
	}

	status, ok := model.ParseReviewStatus(record[colReviewStatus])
	if !ok {
		return model.Account{}, fmt.Errorf("unknown review_status %q", record[colReviewStatus])
	}

	category, ok := model.ParseStatusCategory(record[colStatusCategory])
	if !ok {
		return model.Account{}, fmt.Errorf("unknown status_category %q", record[colStatusCategory])
	}

	mistakes, err := strconv.Atoi(record[colMistakeCount])
	if err != nil || mistakes < 0 {
		return model.Account{}, fmt.Errorf("parsing mistake_count %q", record[colMistakeCount])
	}

	stage := model.Role(record[colCurrentStage])
	if (stage == "") != (status == model.StatusFinalized) {
		return model.Account{}, fmt.Errorf("account %d: stage %q inconsistent with status %s", id, stage, status)
	}

	return model.Account{
		ID:             id,
		AccountNumber:  record[colNumber],
		AccountName:    record[colName],
		Department:     record[colDepartment],
		BSPL:           record[colBSPL],
		StatusCategory: category,
		MainHead:       record[colMainHead],
		SubHead:        record[colSubHead],
		SPOC:           record[colSPOC],
		Reviewer:       record[colReviewer],
		ReviewStatus:   status,
		CurrentStage:   stage,
		MistakeCount:   mistakes,
	}, nil
}
