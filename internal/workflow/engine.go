package workflow

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finsight-dev/finsight/internal/accounts"
	"github.com/finsight-dev/finsight/internal/logging"
	"github.com/finsight-dev/finsight/internal/model"
)

var (
	// ErrAccountNotFound is returned for IDs absent from the store.
	ErrAccountNotFound = errors.New("account not found")
	// ErrReasonRequired is returned when a rejection is submitted without a reason.
	ErrReasonRequired = errors.New("a reason is required to reject an account")
	// ErrUnknownToken is returned for reject tokens that were never issued or are already used.
	ErrUnknownToken = errors.New("unknown or expired reject token")
)

// Outcome says whether a transition changed the account.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeWrongActor Outcome = "wrong actor"
	OutcomeFinalized  Outcome = "finalized"
)

// Result carries the outcome and the account as it stands afterwards.
type Result struct {
	Outcome Outcome
	Account model.Account
}

// Applied reports whether the account was changed.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// Token identifies a reject awaiting its reason.
type Token string

type pendingReject struct {
	accountID int
	actor     model.User
}

// Engine applies review transitions to accounts in a store.
type Engine struct {
	seq    Sequence
	store  *accounts.Store
	now    func() time.Time
	logger logrus.FieldLogger

	mu      sync.Mutex
	pending map[Token]pendingReject
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the audit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine driving accounts in store through seq.
func NewEngine(seq Sequence, store *accounts.Store, opts ...Option) *Engine {
	e := &Engine{
		seq:     seq,
		store:   store,
		now:     time.Now,
		logger:  logging.Discard(),
		pending: make(map[Token]pendingReject),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Sequence returns the stage sequence the engine enforces.
func (e *Engine) Sequence() Sequence {
	return e.seq
}

// Approve advances the account one stage, or finalizes it from the last
// stage. Nothing changes unless actor's role is the current stage.
func (e *Engine) Approve(id int, actor model.User) (Result, error) {
	var res Result
	err := e.store.Mutate(func(tx *accounts.Tx) error {
		acct, ok := tx.Get(id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
		}
		if out := e.check(acct, actor); out != OutcomeApplied {
			res = Result{Outcome: out, Account: acct}
			return nil
		}

		from := acct.CurrentStage
		next, finalized, known := e.seq.Next(from)
		if !known {
			return fmt.Errorf("account %d is at stage %q, which is not configured", id, from)
		}

		updated, err := tx.Update(id, func(a *model.Account) error {
			to := string(next)
			if finalized {
				a.CurrentStage = ""
				a.ReviewStatus = model.StatusFinalized
				to = model.FinalizedStage
			} else {
				a.CurrentStage = next
				a.ReviewStatus = model.StatusPending
			}
			a.AppendAudit(model.AuditEntry{
				Timestamp: e.now(),
				User:      actor.Name,
				Role:      actor.Role,
				Action:    fmt.Sprintf(model.ApproveActionFmt, from),
				From:      string(from),
				To:        to,
			})
			return nil
		})
		if err != nil {
			return err
		}
		res = Result{Outcome: OutcomeApplied, Account: updated}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	e.logTransition("approve", id, actor, res)
	return res, nil
}

// RequestReject checks that actor may reject the account and opens a token
// that SubmitReject completes. Any earlier open token for the same account is
// dropped. The account is not modified.
func (e *Engine) RequestReject(id int, actor model.User) (Token, Result, error) {
	acct, err := e.store.Get(id)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return "", Result{}, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
		}
		return "", Result{}, err
	}
	if out := e.check(acct, actor); out != OutcomeApplied {
		e.logTransition("request reject", id, actor, Result{Outcome: out, Account: acct})
		return "", Result{Outcome: out, Account: acct}, nil
	}

	tok := Token(uuid.NewString())
	e.mu.Lock()
	// One open reject per account; a new request supersedes the old token.
	for old, p := range e.pending {
		if p.accountID == id {
			delete(e.pending, old)
		}
	}
	e.pending[tok] = pendingReject{accountID: id, actor: actor}
	e.mu.Unlock()
	return tok, Result{Outcome: OutcomeApplied, Account: acct}, nil
}

// SubmitReject completes a reject. A blank reason leaves the token open.
// The stage is checked again, since the account may have moved after the
// token was issued. The account returns to the first stage as a Mismatch.
func (e *Engine) SubmitReject(tok Token, actor model.User, reason string) (Result, error) {
	e.mu.Lock()
	p, ok := e.pending[tok]
	if !ok {
		e.mu.Unlock()
		return Result{}, ErrUnknownToken
	}
	if p.actor != actor {
		e.mu.Unlock()
		return Result{}, fmt.Errorf("%w: issued to %s", ErrUnknownToken, p.actor.Name)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		e.mu.Unlock()
		return Result{}, ErrReasonRequired
	}
	delete(e.pending, tok)
	e.mu.Unlock()

	var res Result
	err := e.store.Mutate(func(tx *accounts.Tx) error {
		acct, ok := tx.Get(p.accountID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrAccountNotFound, p.accountID)
		}
		if out := e.check(acct, actor); out != OutcomeApplied {
			res = Result{Outcome: out, Account: acct}
			return nil
		}

		first := e.seq.First()
		updated, err := tx.Update(p.accountID, func(a *model.Account) error {
			from := a.CurrentStage
			a.CurrentStage = first
			a.ReviewStatus = model.StatusMismatch
			a.MistakeCount++
			a.AppendAudit(model.AuditEntry{
				Timestamp: e.now(),
				User:      actor.Name,
				Role:      actor.Role,
				Action:    fmt.Sprintf(model.RejectActionFmt, from),
				From:      string(from),
				To:        string(first),
				Reason:    reason,
			})
			return nil
		})
		if err != nil {
			return err
		}
		res = Result{Outcome: OutcomeApplied, Account: updated}
		return nil
	})
	if err != nil {
		logging.LogError(e.logger, "workflow", "reject", p.accountID, err)
		return Result{}, err
	}

	e.logTransition("reject", p.accountID, actor, res)
	return res, nil
}

// CancelReject drops a pending token. It reports whether the token was open.
func (e *Engine) CancelReject(tok Token) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[tok]
	delete(e.pending, tok)
	return ok
}

// Reject runs RequestReject and SubmitReject back to back.
func (e *Engine) Reject(id int, actor model.User, reason string) (Result, error) {
	if strings.TrimSpace(reason) == "" {
		return Result{}, ErrReasonRequired
	}
	tok, res, err := e.RequestReject(id, actor)
	if err != nil || !res.Applied() {
		return res, err
	}
	return e.SubmitReject(tok, actor, reason)
}

// History returns a copy of the account's audit log, oldest first.
func (e *Engine) History(id int) ([]model.AuditEntry, error) {
	acct, err := e.store.Get(id)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
		}
		return nil, err
	}
	return acct.AuditLog, nil
}

func (e *Engine) check(acct model.Account, actor model.User) Outcome {
	if acct.IsFinalized() {
		return OutcomeFinalized
	}
	if actor.Role != acct.CurrentStage {
		return OutcomeWrongActor
	}
	return OutcomeApplied
}

func (e *Engine) logTransition(op string, id int, actor model.User, res Result) {
	entry := e.logger.WithFields(logrus.Fields{
		"op":      op,
		"account": id,
		"user":    actor.Name,
		"role":    actor.Role,
		"outcome": res.Outcome,
		"stage":   res.Account.StageLabel(),
	})
	if res.Applied() {
		entry.Info("workflow transition")
		return
	}
	entry.Warn("workflow transition refused")
}
