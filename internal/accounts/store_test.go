package accounts

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-dev/finsight/internal/model"
)

func withIngestion(a model.Account, at time.Time) model.Account {
	a.AppendAudit(model.AuditEntry{
		Timestamp: at,
		User:      model.SystemUser.Name,
		Role:      model.SystemUser.Role,
		Action:    model.IngestionAction,
		From:      model.NotApplicable,
		To:        string(a.CurrentStage),
	})
	return a
}

func TestStoreGet(t *testing.T) {
	s := NewStore([]model.Account{sampleAccount(1, "1000-10")})

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "1000-10", got.AccountNumber)

	_, err = s.Get(7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMutateCommitsOnSuccess(t *testing.T) {
	s := NewStore([]model.Account{sampleAccount(1, "1000-10")})

	err := s.Mutate(func(tx *Tx) error {
		if _, err := tx.Update(1, func(a *model.Account) error {
			a.MistakeCount = 2
			return nil
		}); err != nil {
			return err
		}
		return tx.Insert(sampleAccount(2, "1000-20"))
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MistakeCount)
}

func TestMutateRollsBackOnError(t *testing.T) {
	s := NewStore([]model.Account{sampleAccount(1, "1000-10")})
	boom := errors.New("boom")

	err := s.Mutate(func(tx *Tx) error {
		require.NoError(t, tx.Insert(sampleAccount(2, "1000-20")))
		_, err := tx.Update(1, func(a *model.Account) error {
			a.MistakeCount = 5
			return nil
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1, s.Len())
	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Zero(t, got.MistakeCount)
}

func TestTxInsertRejectsDuplicates(t *testing.T) {
	s := NewStore([]model.Account{sampleAccount(1, "1000-10")})

	err := s.Mutate(func(tx *Tx) error { return tx.Insert(sampleAccount(1, "9999")) })
	assert.ErrorContains(t, err, "id 1 already exists")

	err = s.Mutate(func(tx *Tx) error { return tx.Insert(sampleAccount(2, "1000-10")) })
	assert.ErrorContains(t, err, "already exists")

	err = s.Mutate(func(tx *Tx) error { return tx.Insert(sampleAccount(0, "1")) })
	assert.ErrorContains(t, err, "invalid id")
}

func TestTxUpdateUnknown(t *testing.T) {
	s := NewStore(nil)
	err := s.Mutate(func(tx *Tx) error {
		_, err := tx.Update(3, func(*model.Account) error { return nil })
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewStore([]model.Account{withIngestion(sampleAccount(1, "1000-10"), at)})

	all := s.All()
	all[0].AuditLog[0].User = "Mallory"
	all[0].AccountName = "changed"

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "System", got.AuditLog[0].User)
	assert.Equal(t, "Cash at Bank", got.AccountName)
}

func TestMutateSerializes(t *testing.T) {
	s := NewStore([]model.Account{sampleAccount(1, "1000-10")})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Mutate(func(tx *Tx) error {
				_, err := tx.Update(1, func(a *model.Account) error {
					a.MistakeCount++
					return nil
				})
				return err
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 50, got.MistakeCount)
}

func TestFilter(t *testing.T) {
	ops := sampleAccount(2, "1000-20")
	ops.Department = "Operations"
	s := NewStore([]model.Account{sampleAccount(1, "1000-10"), ops})

	got := s.Filter(func(a model.Account) bool { return a.Department == "Operations" })
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestSaveLoad(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	second := withIngestion(sampleAccount(2, "1000-20"), at)
	second.AppendAudit(model.AuditEntry{
		Timestamp: at.Add(time.Hour),
		User:      "Alice",
		Role:      "Checker 1",
		Action:    "Reject / Mismatch - Checker 1",
		From:      "Checker 1",
		To:        "Checker 1",
		Reason:    "wrong, department",
	})
	second.ReviewStatus = model.StatusMismatch
	second.MistakeCount = 1

	s := NewStore([]model.Account{withIngestion(sampleAccount(1, "1000-10"), at), second})
	require.NoError(t, s.Save(root))
	assert.FileExists(t, filepath.Join(root, "accounts", "accounts.csv"))
	assert.FileExists(t, filepath.Join(root, "logs", "audit-log.csv"))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, s.All(), loaded.All())
}

func TestLoadMissingWorkspace(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestLoadRequiresAuditEntries(t *testing.T) {
	root := t.TempDir()
	s := NewStore([]model.Account{sampleAccount(1, "1000-10")})
	require.NoError(t, s.Save(root))

	_, err := Load(root)
	assert.ErrorContains(t, err, "no audit entries")
}

func TestSaveReportsWriteFailures(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewStore([]model.Account{withIngestion(sampleAccount(1, "1000-10"), at)})

	tests := []struct {
		name    string
		blocked string
		wantErr string
	}{
		{"accounts file", filepath.Join("accounts", "accounts.csv"), "accounts file"},
		{"audit log", filepath.Join("logs", "audit-log.csv"), "audit log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(root, tt.blocked), 0o755))

			err := s.Save(root)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReloadPicksUpSavedChanges(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	stale := NewStore(nil)
	writer := NewStore([]model.Account{withIngestion(sampleAccount(1, "1000-10"), at)})
	require.NoError(t, writer.Save(root))

	require.NoError(t, stale.Reload(root))
	assert.Equal(t, writer.All(), stale.All())
}

func TestReloadKeepsStoreOnError(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewStore([]model.Account{withIngestion(sampleAccount(1, "1000-10"), at)})

	require.NoError(t, NewStore([]model.Account{sampleAccount(2, "1000-20")}).Save(root))

	assert.ErrorContains(t, s.Reload(root), "no audit entries")
	assert.Equal(t, 1, s.Len())
}
