package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finsight-dev/finsight/internal/accounts"
	"github.com/finsight-dev/finsight/internal/id"
	"github.com/finsight-dev/finsight/internal/importer"
	"github.com/finsight-dev/finsight/internal/logging"
	"github.com/finsight-dev/finsight/internal/model"
)

// DefaultPreviewRows is the number of sample rows shown before confirmation.
const DefaultPreviewRows = 5

// Pipeline turns uploaded spreadsheets into previews and commits them.
type Pipeline struct {
	firstStage  model.Role
	registry    *importer.Registry
	aliases     *AliasTable
	resolver    ResolverOptions
	previewRows int
	concurrency int
	now         func() time.Time
	logger      logrus.FieldLogger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry replaces the default CSV/XLSX readers.
func WithRegistry(r *importer.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithAliases replaces the default alias table.
func WithAliases(t *AliasTable) Option {
	return func(p *Pipeline) { p.aliases = t }
}

// WithResolverOptions sets the header heuristic thresholds.
func WithResolverOptions(o ResolverOptions) Option {
	return func(p *Pipeline) { p.resolver = o }
}

// WithPreviewRows sets how many sample rows a Preview carries.
func WithPreviewRows(n int) Option {
	return func(p *Pipeline) { p.previewRows = n }
}

// WithConcurrency bounds how many inbox files are parsed at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// WithClock overrides the time source used for ingestion audit entries.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline whose accounts enter review at firstStage.
func NewPipeline(firstStage model.Role, opts ...Option) *Pipeline {
	p := &Pipeline{
		firstStage:  firstStage,
		registry:    importer.DefaultRegistry(),
		aliases:     DefaultAliases(),
		resolver:    DefaultResolverOptions(),
		previewRows: DefaultPreviewRows,
		concurrency: 4,
		now:         time.Now,
		logger:      logging.Discard(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Candidate is a row that passed validation and awaits commit.
type Candidate struct {
	Row     int
	Account model.Account
}

type previewState int

const (
	previewOpen previewState = iota
	previewDiscarded
	previewCommitted
)

// Preview is the parsed, validated content of one file awaiting confirmation.
type Preview struct {
	FileName   string
	SheetName  string
	SheetIndex int
	HeaderRow  int // 1-based
	Headers    []string
	Columns    []ColumnMapping
	Sample     [][]string
	Candidates []Candidate
	Errors     []UploadError
	Warnings   []string
	TotalRows  int

	mu    sync.Mutex
	state previewState
}

// Discard drops the preview; it can no longer be committed.
func (pv *Preview) Discard() {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if pv.state == previewOpen {
		pv.state = previewDiscarded
		pv.Candidates = nil
	}
}

// Discarded reports whether Discard was called before a commit.
func (pv *Preview) Discarded() bool {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.state == previewDiscarded
}

// Outcome distinguishes full, partial and empty imports.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeNone     Outcome = "none"
)

// Result is returned once a preview is committed.
type Result struct {
	FileName      string
	AcceptedCount int
	Accepted      []model.Account
	Errors        []UploadError
	Warnings      []string
}

// Outcome reports whether every row, some rows or no rows were imported.
func (r Result) Outcome() Outcome {
	switch {
	case r.AcceptedCount == 0:
		return OutcomeNone
	case len(r.Errors) > 0:
		return OutcomePartial
	default:
		return OutcomeComplete
	}
}

// Prepare parses and validates fileName without touching the store.
func (p *Pipeline) Prepare(ctx context.Context, fileName string, r io.Reader) (*Preview, error) {
	if !p.registry.Supports(fileName) {
		return nil, &FileError{
			Kind:     KindUnsupportedFileType,
			FileName: fileName,
			Err:      fmt.Errorf("%w: only .csv and .xlsx are accepted", ErrUnsupportedFileType),
		}
	}

	wb, err := p.registry.ReadFile(fileName, r)
	if err != nil {
		return nil, &FileError{
			Kind:     KindEmptyOrUnreadableFile,
			FileName: fileName,
			Err:      fmt.Errorf("%w: %v", ErrEmptyOrUnreadableFile, err),
		}
	}
	return p.PrepareWorkbook(ctx, fileName, wb)
}

// PrepareWorkbook runs header resolution, mapping and filtering on a parsed workbook.
func (p *Pipeline) PrepareWorkbook(ctx context.Context, fileName string, wb *importer.Workbook) (*Preview, error) {
	if wb.IsEmpty() {
		return nil, &FileError{Kind: KindEmptyOrUnreadableFile, FileName: fileName, Err: ErrEmptyOrUnreadableFile}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := ResolveHeader(wb, p.aliases, p.resolver)
	if err != nil {
		return nil, &FileError{Kind: KindNoQualifyingHeader, FileName: fileName, Err: err}
	}

	cols, mapWarnings := MapHeaders(res.Headers, p.aliases)
	pv := &Preview{
		FileName:   fileName,
		SheetName:  res.SheetName,
		SheetIndex: res.SheetIndex,
		HeaderRow:  res.HeaderRow + 1,
		Headers:    res.Headers,
		Columns:    cols,
	}
	pv.Warnings = append(pv.Warnings, res.Warnings...)
	pv.Warnings = append(pv.Warnings, mapWarnings...)

	sheetRows := wb.Sheets[res.SheetIndex].Rows
	var rows []DataRow
	for i := res.HeaderRow + 1; i < len(sheetRows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if importer.IsBlankRow(sheetRows[i]) {
			continue
		}
		rows = append(rows, DataRow{Number: i + 1, Cells: sheetRows[i]})
	}
	pv.TotalRows = len(rows)

	for _, r := range rows[:min(p.previewRows, len(rows))] {
		pv.Sample = append(pv.Sample, r.Cells)
	}

	dupErrs, excluded := FindDuplicates(rows, ColumnFor(cols, FieldAccountNumber), p.aliases)
	pv.Errors = append(pv.Errors, dupErrs...)

	coerced := 0
	for _, r := range rows {
		if excluded[r.Number] {
			continue
		}
		values := RowValues(r, cols)
		if missing := MissingRequired(values); len(missing) > 0 {
			pv.Errors = append(pv.Errors, missingFieldError(r, res.Headers, missing, p.aliases))
			continue
		}
		acct, wasCoerced := BuildAccount(values)
		if wasCoerced {
			coerced++
		}
		pv.Candidates = append(pv.Candidates, Candidate{Row: r.Number, Account: acct})
	}
	if coerced > 0 {
		pv.Warnings = append(pv.Warnings, fmt.Sprintf(
			"%d row(s) had an unrecognised %s value and were set to %s",
			coerced, p.aliases.DisplayName(FieldStatusCategory), model.CategoryAssets))
	}
	sortErrors(pv.Errors)

	p.logger.WithFields(logrus.Fields{
		"file":       fileName,
		"sheet":      pv.SheetName,
		"header_row": pv.HeaderRow,
		"rows":       pv.TotalRows,
		"candidates": len(pv.Candidates),
		"errors":     len(pv.Errors),
	}).Info("prepared upload")
	return pv, nil
}

// Commit assigns IDs, attaches the ingestion audit entry and inserts every
// candidate in one store mutation. Candidates whose account number already
// exists in the store are reported and skipped.
func (p *Pipeline) Commit(pv *Preview, store *accounts.Store) (Result, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if pv.state != previewOpen {
		return Result{}, ErrPreviewClosed
	}

	var accepted []model.Account
	var commitErrs []UploadError
	err := store.Mutate(func(tx *accounts.Tx) error {
		accepted, commitErrs = nil, nil
		alloc := id.NewAllocator(tx.IDs())
		now := p.now()
		for _, c := range pv.Candidates {
			if existing, dup := tx.FindByNumber(c.Account.AccountNumber); dup {
				commitErrs = append(commitErrs, UploadError{
					Row:  c.Row,
					Kind: KindDuplicateAccountNumber,
					Message: fmt.Sprintf("%s '%s' already exists as account %s. This row was not imported.",
						p.aliases.DisplayName(FieldAccountNumber), c.Account.AccountNumber, id.FormatAccountID(existing.ID)),
					Context: "Account: " + c.Account.AccountNumber,
				})
				continue
			}
			acct := c.Account.Clone()
			acct.ID = alloc.Next()
			acct.CurrentStage = p.firstStage
			acct.ReviewStatus = model.StatusPending
			acct.AuditLog = nil
			acct.AppendAudit(IngestionEntry(p.firstStage, now))
			if err := tx.Insert(acct); err != nil {
				return fmt.Errorf("committing row %d: %w", c.Row, err)
			}
			accepted = append(accepted, acct)
		}
		return nil
	})
	if err != nil {
		logging.LogError(p.logger, "ingest", "commit", pv.FileName, err)
		return Result{}, err
	}
	pv.state = previewCommitted

	res := Result{
		FileName:      pv.FileName,
		AcceptedCount: len(accepted),
		Accepted:      accepted,
		Errors:        append(append([]UploadError(nil), pv.Errors...), commitErrs...),
		Warnings:      append([]string(nil), pv.Warnings...),
	}
	sortErrors(res.Errors)

	p.logger.WithFields(logrus.Fields{
		"file":     pv.FileName,
		"accepted": res.AcceptedCount,
		"errors":   len(res.Errors),
		"outcome":  res.Outcome(),
	}).Info("committed upload")
	return res, nil
}

func sortErrors(errs []UploadError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Row < errs[j].Row })
}

// IsFileError reports whether err aborted a whole file and returns it.
func IsFileError(err error) (*FileError, bool) {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
