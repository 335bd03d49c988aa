package accounts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/finsight-dev/finsight/internal/auditlog"
	"github.com/finsight-dev/finsight/internal/model"
)

const (
	accountsDir  = "accounts"
	accountsFile = "accounts/accounts.csv"
)

// ErrNotFound is returned when no account has the requested ID.
var ErrNotFound = errors.New("account not found")

// Store holds the account collection. Every read-modify-write goes through Mutate.
type Store struct {
	mu       sync.Mutex
	accounts []model.Account
}

// NewStore creates a store seeded with accounts.
func NewStore(accounts []model.Account) *Store {
	s := &Store{}
	for _, a := range accounts {
		s.accounts = append(s.accounts, a.Clone())
	}
	return s
}

// All returns a snapshot of every account in insertion order.
func (s *Store) All() []model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.accounts)
}

// Get returns a copy of the account with the given ID.
func (s *Store) Get(id int) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return model.Account{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// Filter returns copies of the accounts for which keep returns true.
func (s *Store) Filter(keep func(model.Account) bool) []model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Account
	for _, a := range s.accounts {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Mutate runs fn against a working copy of the collection and swaps it in
// only when fn returns nil. Concurrent calls are serialized.
func (s *Store) Mutate(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{accounts: append([]model.Account(nil), s.accounts...)}
	if err := fn(tx); err != nil {
		return err
	}
	s.accounts = tx.accounts
	return nil
}

// Tx is the working copy handed to a Mutate callback. It must not be retained.
type Tx struct {
	accounts []model.Account
}

// Get returns a copy of the account with the given ID.
func (tx *Tx) Get(id int) (model.Account, bool) {
	if i := tx.index(id); i >= 0 {
		return tx.accounts[i].Clone(), true
	}
	return model.Account{}, false
}

// FindByNumber returns the account with the given account number.
func (tx *Tx) FindByNumber(number string) (model.Account, bool) {
	for _, a := range tx.accounts {
		if a.AccountNumber == number {
			return a.Clone(), true
		}
	}
	return model.Account{}, false
}

// IDs lists every account ID in the working copy.
func (tx *Tx) IDs() []int {
	ids := make([]int, len(tx.accounts))
	for i, a := range tx.accounts {
		ids[i] = a.ID
	}
	return ids
}

// Len returns the number of accounts in the working copy.
func (tx *Tx) Len() int {
	return len(tx.accounts)
}

// Update applies fn to a copy of the account and stores the result if fn succeeds.
func (tx *Tx) Update(id int, fn func(a *model.Account) error) (model.Account, error) {
	i := tx.index(id)
	if i < 0 {
		return model.Account{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	acct := tx.accounts[i].Clone()
	if err := fn(&acct); err != nil {
		return model.Account{}, err
	}
	tx.accounts[i] = acct
	return acct.Clone(), nil
}

// Insert appends a new account. The ID and account number must both be unused.
func (tx *Tx) Insert(acct model.Account) error {
	if acct.ID <= 0 {
		return fmt.Errorf("inserting account %q: invalid id %d", acct.AccountNumber, acct.ID)
	}
	if tx.index(acct.ID) >= 0 {
		return fmt.Errorf("inserting account: id %d already exists", acct.ID)
	}
	if _, dup := tx.FindByNumber(acct.AccountNumber); dup {
		return fmt.Errorf("inserting account: number %q already exists", acct.AccountNumber)
	}
	tx.accounts = append(tx.accounts, acct.Clone())
	return nil
}

func (tx *Tx) index(id int) int {
	for i, a := range tx.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(accounts []model.Account) []model.Account {
	out := make([]model.Account, len(accounts))
	for i, a := range accounts {
		out[i] = a.Clone()
	}
	return out
}

// Load reads accounts/accounts.csv and logs/audit-log.csv under root.
// A workspace without an accounts file yields an empty store.
func Load(root string) (*Store, error) {
	f, err := os.Open(filepath.Join(root, accountsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(nil), nil
		}
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	list, err := ReadAccounts(f)
	if err != nil {
		return nil, err
	}

	logs, err := auditlog.Load(root)
	if err != nil {
		return nil, err
	}

	for i := range list {
		list[i].AuditLog = logs[list[i].ID]
		if len(list[i].AuditLog) == 0 {
			return nil, fmt.Errorf("account %d has no audit entries", list[i].ID)
		}
	}
	return &Store{accounts: list}, nil
}

// Save writes the account and audit log snapshots under root.
func (s *Store) Save(root string) error {
	snapshot := s.All()

	if err := os.MkdirAll(filepath.Join(root, accountsDir), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(filepath.Join(root, accountsFile))
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	if err := WriteAccounts(f, snapshot); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing accounts file: %w", err)
	}

	return auditlog.Save(root, snapshot)
}

// Reload replaces the collection with the snapshots currently on disk under root.
// On error the store is left unchanged.
func (s *Store) Reload(root string) error {
	fresh, err := Load(root)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = fresh.accounts
	return nil
}
