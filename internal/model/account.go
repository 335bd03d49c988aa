package model

import (
	"strings"
	"time"
)

// ReviewStatus is the review state of a GL account.
type ReviewStatus string

const (
	StatusPending   ReviewStatus = "Pending"
	StatusApproved  ReviewStatus = "Approved"
	StatusRejected  ReviewStatus = "Rejected"
	StatusMismatch  ReviewStatus = "Mismatch"
	StatusFinalized ReviewStatus = "Finalized"
)

// ParseReviewStatus returns the status named by s.
func ParseReviewStatus(s string) (ReviewStatus, bool) {
	switch ReviewStatus(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusMismatch, StatusFinalized:
		return ReviewStatus(s), true
	}
	return "", false
}

// StatusCategory classifies balance sheet accounts.
type StatusCategory string

const (
	CategoryAssets      StatusCategory = "Assets"
	CategoryLiabilities StatusCategory = "Liabilities"
	CategoryEquity      StatusCategory = "Equity"
)

// ParseStatusCategory matches s case-insensitively against the known categories.
func ParseStatusCategory(s string) (StatusCategory, bool) {
	for _, c := range []StatusCategory{CategoryAssets, CategoryLiabilities, CategoryEquity} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Default values for optional fields missing from an upload.
const (
	DefaultBSPL      = "BS"
	DefaultHead      = "N/A"
	DefaultAssignee  = "Unassigned"
	NotApplicable    = "N/A"
	FinalizedStage   = "Finalized"
	IngestionAction  = "Data Ingestion"
	ApproveActionFmt = "Approve - %s"
	RejectActionFmt  = "Reject / Mismatch - %s"
)

// AuditEntry records one workflow event on an account.
type AuditEntry struct {
	Timestamp time.Time
	User      string
	Role      Role
	Action    string
	From      string
	To        string
	Reason    string // only set on rejections
}

// Account is a GL account under review.
type Account struct {
	ID             int
	AccountNumber  string
	AccountName    string
	Department     string
	BSPL           string
	StatusCategory StatusCategory
	MainHead       string
	SubHead        string
	SPOC           string
	Reviewer       string
	ReviewStatus   ReviewStatus
	CurrentStage   Role // empty once finalized
	MistakeCount   int
	AuditLog       []AuditEntry
}

// IsFinalized reports whether the account has left the review pipeline.
func (a Account) IsFinalized() bool {
	return a.CurrentStage == ""
}

// StageLabel returns the current stage, or "Finalized" when there is none.
func (a Account) StageLabel() string {
	if a.IsFinalized() {
		return FinalizedStage
	}
	return string(a.CurrentStage)
}

// AppendAudit adds e to the audit log, keeping timestamps strictly increasing.
func (a *Account) AppendAudit(e AuditEntry) {
	if n := len(a.AuditLog); n > 0 {
		last := a.AuditLog[n-1].Timestamp
		if !e.Timestamp.After(last) {
			e.Timestamp = last.Add(time.Nanosecond)
		}
	}
	a.AuditLog = append(a.AuditLog, e)
}

// Clone returns a deep copy so callers cannot alias the audit log.
func (a Account) Clone() Account {
	c := a
	if a.AuditLog != nil {
		c.AuditLog = make([]AuditEntry, len(a.AuditLog))
		copy(c.AuditLog, a.AuditLog)
	}
	return c
}
