package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/finsight-dev/finsight/internal/model"
)

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,account_id,user,role,action,from_stage,to_stage,reason"

const (
	numFields    = 8
	logDir       = "logs"
	logFile      = "logs/audit-log.csv"
	colTimestamp = 0
	colAccountID = 1
	colUser      = 2
	colRole      = 3
	colAction    = 4
	colFrom      = 5
	colTo        = 6
	colReason    = 7
)

// Record is one audit entry tagged with its account.
type Record struct {
	AccountID int
	Entry     model.AuditEntry
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(r Record) []string {
	row := make([]string, numFields)
	row[colTimestamp] = r.Entry.Timestamp.UTC().Format(time.RFC3339Nano)
	row[colAccountID] = strconv.Itoa(r.AccountID)
	row[colUser] = r.Entry.User
	row[colRole] = string(r.Entry.Role)
	row[colAction] = r.Entry.Action
	row[colFrom] = r.Entry.From
	row[colTo] = r.Entry.To
	row[colReason] = r.Entry.Reason
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(record []string) (Record, error) {
	if len(record) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[colTimestamp])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	id, err := strconv.Atoi(record[colAccountID])
	if err != nil {
		return Record{}, fmt.Errorf("parsing account_id %q: %w", record[colAccountID], err)
	}

	return Record{
		AccountID: id,
		Entry: model.AuditEntry{
			Timestamp: ts,
			User:      record[colUser],
			Role:      model.Role(record[colRole]),
			Action:    record[colAction],
			From:      record[colFrom],
			To:        record[colTo],
			Reason:    record[colReason],
		},
	}, nil
}

// Flatten lists every audit entry of accounts in account order, then log order.
func Flatten(accounts []model.Account) []Record {
	var out []Record
	for _, a := range accounts {
		for _, e := range a.AuditLog {
			out = append(out, Record{AccountID: a.ID, Entry: e})
		}
	}
	return out
}

// Write writes the header and records as CSV.
func Write(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses audit-log CSV and groups entries by account, keeping file order.
func Read(r io.Reader) (map[int][]model.AuditEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	byAccount := make(map[int][]model.AuditEntry)
	if len(records) <= 1 {
		return byAccount, nil
	}

	for i, rec := range records[1:] {
		r, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		byAccount[r.AccountID] = append(byAccount[r.AccountID], r.Entry)
	}
	return byAccount, nil
}

// Save rewrites <root>/logs/audit-log.csv from accounts.
func Save(root string, accounts []model.Account) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	f, err := os.Create(filepath.Join(root, logFile))
	if err != nil {
		return fmt.Errorf("creating audit log: %w", err)
	}
	if err := Write(f, Flatten(accounts)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing audit log: %w", err)
	}
	return nil
}

// Load reads <root>/logs/audit-log.csv.
// Returns an empty map if the file does not exist.
func Load(root string) (map[int][]model.AuditEntry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[int][]model.AuditEntry{}, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return Read(f)
}
