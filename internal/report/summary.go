package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finsight-dev/finsight/internal/model"
)

// Priority ranks departments by how many mismatches their accounts collected.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Thresholds are the minimum mistake counts for each priority.
type Thresholds struct {
	Critical int
	Medium   int
}

// DefaultThresholds flags ten mistakes as critical and five as medium.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 10, Medium: 5}
}

// PriorityFor classifies a mistake count.
func (t Thresholds) PriorityFor(mistakes int) Priority {
	switch {
	case mistakes >= t.Critical:
		return PriorityCritical
	case mistakes >= t.Medium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DepartmentMetrics aggregates one responsible department.
type DepartmentMetrics struct {
	Department  string
	Accounts    int
	Mistakes    int
	MistakeRate decimal.Decimal // mistakes per account, 2 dp
	Priority    Priority
}

// Summary is the dashboard view of the account book.
type Summary struct {
	Total         int
	Finalized     int
	Pending       int // Pending or Mismatch
	TotalMistakes int
	ByStatus      map[model.ReviewStatus]int
	ByStage       map[string]int
	Departments   []DepartmentMetrics
}

// Summarize computes totals and per-department metrics. Departments are
// ordered by mistakes, most first, then by name.
func Summarize(accounts []model.Account, th Thresholds) Summary {
	s := Summary{
		Total:    len(accounts),
		ByStatus: make(map[model.ReviewStatus]int),
		ByStage:  make(map[string]int),
	}

	depts := make(map[string]*DepartmentMetrics)
	for _, a := range accounts {
		status := a.ReviewStatus
		if a.IsFinalized() {
			status = model.StatusFinalized
		}
		s.ByStatus[status]++
		s.ByStage[a.StageLabel()]++
		switch status {
		case model.StatusFinalized:
			s.Finalized++
		case model.StatusPending, model.StatusMismatch:
			s.Pending++
		}
		s.TotalMistakes += a.MistakeCount

		d, ok := depts[a.Department]
		if !ok {
			d = &DepartmentMetrics{Department: a.Department}
			depts[a.Department] = d
		}
		d.Accounts++
		d.Mistakes += a.MistakeCount
	}

	for _, d := range depts {
		d.MistakeRate = decimal.NewFromInt(int64(d.Mistakes)).
			DivRound(decimal.NewFromInt(int64(d.Accounts)), 2)
		d.Priority = th.PriorityFor(d.Mistakes)
		s.Departments = append(s.Departments, *d)
	}
	sort.Slice(s.Departments, func(i, j int) bool {
		a, b := s.Departments[i], s.Departments[j]
		if a.Mistakes != b.Mistakes {
			return a.Mistakes > b.Mistakes
		}
		return a.Department < b.Department
	})
	return s
}

// StageOrder lists stage labels in sequence order followed by any others
// present in the summary, for stable display.
func (s Summary) StageOrder(stages []model.Role) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range stages {
		out = append(out, string(r))
		seen[string(r)] = true
	}
	var rest []string
	for label := range s.ByStage {
		if !seen[label] && label != model.FinalizedStage {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	out = append(out, rest...)
	return append(out, model.FinalizedStage)
}
