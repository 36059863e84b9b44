package pricelist

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePrecedence_NoLists(t *testing.T) {
	report := AnalyzePrecedence(nil, testNow, DefaultAnalysisOptions())

	require.Len(t, report.Issues, 1)
	assert.Equal(t, SeverityCritical, report.Issues[0].Severity)
	assert.Equal(t, IssueNoPriceLists, report.Issues[0].Code)
	assert.False(t, report.IsValid())
	assert.Nil(t, report.RecommendedDefault)
}

func TestAnalyzePrecedence_AllActiveExpired(t *testing.T) {
	a := newTestList("A", 1, days(-30))
	a.ValidTo = ptr(days(-2))
	a.IsDefault = true
	b := newTestList("B", 2, days(-30))
	b.ValidTo = ptr(days(-1))

	report := AnalyzePrecedence([]PriceList{*a, *b}, testNow, DefaultAnalysisOptions())

	critical := report.BySeverity(SeverityCritical)
	require.Len(t, critical, 1)
	assert.Equal(t, IssueAllActiveExpired, critical[0].Code)
}

func TestAnalyzePrecedence_NoActiveLists(t *testing.T) {
	a := newTestList("A", 1, days(-30))
	a.Status = StatusInactive
	b := newTestList("B", 2, days(-30))
	b.Status = StatusDraft

	report := AnalyzePrecedence([]PriceList{*a, *b}, testNow, DefaultAnalysisOptions())

	critical := report.BySeverity(SeverityCritical)
	require.Len(t, critical, 1)
	assert.Equal(t, IssueNoActiveLists, critical[0].Code)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, critical[0].PriceListIDs)
	assert.False(t, report.IsValid())
	assert.Equal(t, 0, report.ActiveCount)
}

func TestAnalyzePrecedence_MultipleDefaults(t *testing.T) {
	a := newTestList("A", 1, days(-30))
	a.IsDefault = true
	b := newTestList("B", 2, days(-30))
	b.IsDefault = true

	report := AnalyzePrecedence([]PriceList{*a, *b}, testNow, DefaultAnalysisOptions())

	high := report.BySeverity(SeverityHigh)
	require.Len(t, high, 1)
	assert.Equal(t, IssueMultipleDefaults, high[0].Code)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, high[0].PriceListIDs)
	// ambiguous default falls back to lowest priority
	require.NotNil(t, report.RecommendedDefault)
	assert.Equal(t, a.ID, *report.RecommendedDefault)
}

func TestAnalyzePrecedence_OneMediumIssuePerOverlappingPair(t *testing.T) {
	a := newTestList("A", 3, days(-30))
	a.ValidFrom = ptr(days(-20))
	a.ValidTo = ptr(days(-5))
	b := newTestList("B", 3, days(-30))
	b.ValidFrom = ptr(days(-10))
	b.ValidTo = ptr(days(10))
	c := newTestList("C", 3, days(-30))
	c.ValidFrom = ptr(days(5))
	c.IsDefault = true
	separate := newTestList("D", 7, days(-30))

	report := AnalyzePrecedence([]PriceList{*c, *a, *separate, *b}, testNow, DefaultAnalysisOptions())

	medium := report.BySeverity(SeverityMedium)
	require.Len(t, medium, 2)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, medium[0].PriceListIDs)
	assert.Equal(t, []uuid.UUID{b.ID, c.ID}, medium[1].PriceListIDs)

	dup := 0
	for _, i := range report.BySeverity(SeverityWarning) {
		if i.Code == IssueDuplicatePriority {
			dup++
		}
	}
	assert.Equal(t, 1, dup)
}

func TestAnalyzePrecedence_DuplicatePriorityWithoutOverlap(t *testing.T) {
	a := newTestList("A", 3, days(-30))
	a.ValidTo = ptr(days(-1))
	a.Status = StatusInactive
	b := newTestList("B", 3, days(-30))
	b.ValidFrom = ptr(days(1))
	b.IsDefault = true

	report := AnalyzePrecedence([]PriceList{*a, *b}, testNow, DefaultAnalysisOptions())

	assert.Empty(t, report.BySeverity(SeverityMedium))
	codes := issueCodes(report.BySeverity(SeverityWarning))
	assert.Contains(t, codes, IssueDuplicatePriority)
	assert.True(t, report.IsValid())
	require.NotNil(t, report.RecommendedDefault)
	assert.Equal(t, b.ID, *report.RecommendedDefault)
}

func TestAnalyzePrecedence_Warnings(t *testing.T) {
	lists := make([]PriceList, 0, 11)
	for i := 0; i < 11; i++ {
		lists = append(lists, *newTestList("L", 10+i, days(-30)))
	}
	lists[0].ValidTo = ptr(days(3))
	lists[1].ValidTo = ptr(days(8))

	report := AnalyzePrecedence(lists, testNow, DefaultAnalysisOptions())

	codes := issueCodes(report.BySeverity(SeverityWarning))
	assert.Contains(t, codes, IssueNoDefault)
	assert.Contains(t, codes, IssueTooManyActive)

	expiring := 0
	for _, i := range report.Issues {
		if i.Code == IssueExpiringSoon {
			expiring++
			assert.Equal(t, lists[0].ID, i.PriceListIDs[0])
		}
	}
	assert.Equal(t, 1, expiring)
	assert.True(t, report.IsValid())
	assert.Equal(t, lists[0].ID, *report.RecommendedDefault)
}

func issueCodes(issues []Issue) []string {
	codes := make([]string, len(issues))
	for i, is := range issues {
		codes[i] = is.Code
	}
	return codes
}
