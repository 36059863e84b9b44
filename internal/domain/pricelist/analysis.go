package pricelist

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Severity ranks a precedence issue
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityWarning  Severity = "warning"
)

// IsBlocking reports whether the severity makes a configuration invalid
func (s Severity) IsBlocking() bool {
	return s != SeverityWarning
}

// Issue codes
const (
	IssueNoPriceLists       = "NO_PRICE_LISTS"
	IssueNoActiveLists      = "NO_ACTIVE_LISTS"
	IssueAllActiveExpired   = "ALL_ACTIVE_EXPIRED"
	IssueMultipleDefaults   = "MULTIPLE_DEFAULTS"
	IssueOverlappingWindows = "OVERLAPPING_PRIORITY_WINDOWS"
	IssueNoDefault          = "NO_DEFAULT"
	IssueDuplicatePriority  = "DUPLICATE_PRIORITY"
	IssueExpiringSoon       = "EXPIRING_SOON"
	IssueTooManyActive      = "TOO_MANY_ACTIVE_LISTS"
)

// Issue is one finding of the precedence analysis
type Issue struct {
	Severity     Severity
	Code         string
	Message      string
	PriceListIDs []uuid.UUID
}

// AnalysisOptions tunes the non-blocking checks
type AnalysisOptions struct {
	ExpiryWarningWindow time.Duration
	MaxActiveLists      int
}

// DefaultAnalysisOptions returns a 7 day expiry window and a 10 list threshold
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		ExpiryWarningWindow: 7 * 24 * time.Hour,
		MaxActiveLists:      10,
	}
}

// PrecedenceReport is the result of AnalyzePrecedence
type PrecedenceReport struct {
	Issues             []Issue
	RecommendedDefault *uuid.UUID
	ListCount          int
	ActiveCount        int
	AnalyzedAt         time.Time
}

// IsValid reports whether no blocking issue was found
func (r PrecedenceReport) IsValid() bool {
	for _, i := range r.Issues {
		if i.Severity.IsBlocking() {
			return false
		}
	}
	return true
}

// BySeverity returns the issues of one severity in report order
func (r PrecedenceReport) BySeverity(s Severity) []Issue {
	out := make([]Issue, 0)
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// AnalyzePrecedence inspects the price lists of one event without mutating them.
// Lists that exist but are none of them active are critical, as are active lists
// that have all expired: in both cases resolution finds no list.
func AnalyzePrecedence(lists []PriceList, now time.Time, opts AnalysisOptions) PrecedenceReport {
	report := PrecedenceReport{AnalyzedAt: now}

	live := make([]*PriceList, 0, len(lists))
	for i := range lists {
		if !lists[i].IsDeleted {
			live = append(live, &lists[i])
		}
	}
	report.ListCount = len(live)

	if len(live) == 0 {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityCritical,
			Code:     IssueNoPriceLists,
			Message:  "No price lists exist",
		})
		return report
	}

	active := make([]*PriceList, 0, len(live))
	defaults := make([]*PriceList, 0)
	for _, l := range live {
		if l.IsActive() {
			active = append(active, l)
		}
		if l.IsDefault {
			defaults = append(defaults, l)
		}
	}
	report.ActiveCount = len(active)

	if len(active) == 0 {
		report.Issues = append(report.Issues, Issue{
			Severity:     SeverityCritical,
			Code:         IssueNoActiveLists,
			Message:      "No price list is active",
			PriceListIDs: ids(live),
		})
	} else if allExpired(active, now) {
		report.Issues = append(report.Issues, Issue{
			Severity:     SeverityCritical,
			Code:         IssueAllActiveExpired,
			Message:      "All active price lists have expired",
			PriceListIDs: ids(active),
		})
	}

	switch {
	case len(defaults) > 1:
		report.Issues = append(report.Issues, Issue{
			Severity:     SeverityHigh,
			Code:         IssueMultipleDefaults,
			Message:      fmt.Sprintf("%d price lists are marked as default", len(defaults)),
			PriceListIDs: ids(defaults),
		})
	case len(defaults) == 0:
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Code:     IssueNoDefault,
			Message:  "No price list is marked as default",
		})
	}

	report.Issues = append(report.Issues, priorityIssues(live)...)

	for _, l := range active {
		if l.ValidTo == nil || l.ValidTo.Before(now) || l.ValidTo.After(now.Add(opts.ExpiryWarningWindow)) {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Severity:     SeverityWarning,
			Code:         IssueExpiringSoon,
			Message:      fmt.Sprintf("Price list %s expires on %s", l.Name, l.ValidTo.Format(time.DateOnly)),
			PriceListIDs: []uuid.UUID{l.ID},
		})
	}

	if opts.MaxActiveLists > 0 && len(active) > opts.MaxActiveLists {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Code:     IssueTooManyActive,
			Message: fmt.Sprintf("%d active price lists exceed the recommended maximum of %d",
				len(active), opts.MaxActiveLists),
			PriceListIDs: ids(active),
		})
	}

	report.RecommendedDefault = recommendDefault(defaults, active)
	return report
}

// priorityIssues groups lists by priority. Each group with more than one list
// yields one duplicate warning, and each adjacent pair (sorted by validFrom)
// whose windows overlap yields one medium issue.
func priorityIssues(lists []*PriceList) []Issue {
	groups := make(map[int][]*PriceList)
	priorities := make([]int, 0)
	for _, l := range lists {
		if _, ok := groups[l.Priority]; !ok {
			priorities = append(priorities, l.Priority)
		}
		groups[l.Priority] = append(groups[l.Priority], l)
	}
	sort.Ints(priorities)

	issues := make([]Issue, 0)
	for _, p := range priorities {
		group := groups[p]
		if len(group) < 2 {
			continue
		}
		issues = append(issues, Issue{
			Severity:     SeverityWarning,
			Code:         IssueDuplicatePriority,
			Message:      fmt.Sprintf("%d price lists share priority %d", len(group), p),
			PriceListIDs: ids(group),
		})

		sorted := make([]*PriceList, len(group))
		copy(sorted, group)
		sort.SliceStable(sorted, func(i, j int) bool {
			return startOf(sorted[i]).Before(startOf(sorted[j]))
		})
		for i := 0; i+1 < len(sorted); i++ {
			current, next := sorted[i], sorted[i+1]
			if endOf(current).Before(startOf(next)) {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityMedium,
				Code:     IssueOverlappingWindows,
				Message: fmt.Sprintf("Price lists %s and %s share priority %d with overlapping validity",
					current.Name, next.Name, p),
				PriceListIDs: []uuid.UUID{current.ID, next.ID},
			})
		}
	}
	return issues
}

// recommendDefault picks the single default, else the active list with the lowest priority.
// Ties keep input order.
func recommendDefault(defaults, active []*PriceList) *uuid.UUID {
	if len(defaults) == 1 {
		id := defaults[0].ID
		return &id
	}
	var best *PriceList
	for _, l := range active {
		if best == nil || l.Priority < best.Priority {
			best = l
		}
	}
	if best == nil {
		return nil
	}
	id := best.ID
	return &id
}

var (
	minTime = time.Time{}
	maxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

func startOf(l *PriceList) time.Time {
	if l.ValidFrom == nil {
		return minTime
	}
	return *l.ValidFrom
}

func endOf(l *PriceList) time.Time {
	if l.ValidTo == nil {
		return maxTime
	}
	return *l.ValidTo
}

func allExpired(lists []*PriceList, now time.Time) bool {
	for _, l := range lists {
		if !l.IsExpiredAt(now) {
			return false
		}
	}
	return true
}

func ids(lists []*PriceList) []uuid.UUID {
	out := make([]uuid.UUID, len(lists))
	for i, l := range lists {
		out[i] = l.ID
	}
	return out
}
