package auditlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-dev/finsight/internal/model"
)

func TestRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)
	records := []Record{
		{AccountID: 1, Entry: model.AuditEntry{
			Timestamp: at, User: "System", Role: model.RoleAdmin,
			Action: model.IngestionAction, From: "N/A", To: "Checker 1",
		}},
		{AccountID: 1, Entry: model.AuditEntry{
			Timestamp: at.Add(time.Nanosecond), User: "Alice", Role: "Checker 1",
			Action: "Reject / Mismatch - Checker 1", From: "Checker 1", To: "Checker 1",
			Reason: "name, and number\nmismatch",
		}},
		{AccountID: 4, Entry: model.AuditEntry{
			Timestamp: at, User: "System", Role: model.RoleAdmin,
			Action: model.IngestionAction, From: "N/A", To: "Checker 1",
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), Header+"\n"))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []model.AuditEntry{records[0].Entry, records[1].Entry}, got[1])
	assert.Equal(t, []model.AuditEntry{records[2].Entry}, got[4])
}

func TestUnmarshalRecordErrors(t *testing.T) {
	_, err := UnmarshalRecord([]string{"a"})
	assert.ErrorContains(t, err, "expected 8 fields")

	_, err = UnmarshalRecord([]string{"yesterday", "1", "u", "r", "a", "f", "t", ""})
	assert.ErrorContains(t, err, "parsing timestamp")

	_, err = UnmarshalRecord([]string{"2024-03-01T09:30:00Z", "one", "u", "r", "a", "f", "t", ""})
	assert.ErrorContains(t, err, "parsing account_id")
}

func TestFlattenKeepsOrder(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := model.Account{ID: 2}
	a.AppendAudit(model.AuditEntry{Timestamp: at, Action: "first"})
	a.AppendAudit(model.AuditEntry{Timestamp: at, Action: "second"})
	b := model.Account{ID: 1}
	b.AppendAudit(model.AuditEntry{Timestamp: at, Action: "only"})

	got := Flatten([]model.Account{a, b})
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{got[0].AccountID, got[1].AccountID, got[2].AccountID})
	assert.Equal(t, "second", got[1].Entry.Action)
}

func TestSaveLoad(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := model.Account{ID: 3}
	a.AppendAudit(model.AuditEntry{Timestamp: at, User: "System", Role: model.RoleAdmin, Action: model.IngestionAction})

	require.NoError(t, Save(root, []model.Account{a}))

	data, err := os.ReadFile(filepath.Join(root, "logs", "audit-log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Data Ingestion")

	got, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, a.AuditLog, got[3])
}

func TestLoadMissing(t *testing.T) {
	got, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}
