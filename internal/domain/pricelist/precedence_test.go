package pricelist

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCandidates_PartyScopedListsInvisibleWithoutParty(t *testing.T) {
	productID := uuid.New()
	partyX := uuid.New()
	generic := newTestList("A", 1, days(-10))
	scoped := newTestList("B", 5, days(-10))

	listings := []Listing{
		{List: generic, Entry: ptr(newTestEntry(generic, productID, "100"))},
		{List: scoped, Entry: ptr(newTestEntry(scoped, productID, "120"))},
	}
	assignments := []PartyAssignment{{ID: uuid.New(), PriceListID: scoped.ID, BusinessPartyID: partyX}}
	f := NewValidityFilter(testNow, decimal.NewFromInt(1))

	anonymous := BuildCandidates(listings, assignments, nil, f)
	require.Len(t, anonymous, 1)
	assert.Equal(t, generic.ID, anonymous[0].List.ID)

	other := uuid.New()
	stranger := BuildCandidates(listings, assignments, &other, f)
	require.Len(t, stranger, 1)
	assert.Equal(t, generic.ID, stranger[0].List.ID)

	forX := RankCandidates(BuildCandidates(listings, assignments, &partyX, f))
	require.Len(t, forX, 2)
	assert.Equal(t, scoped.ID, forX[0].List.ID)
	assert.True(t, forX[0].PartyAssigned())
}

func TestBuildCandidates_AssignmentWindow(t *testing.T) {
	productID := uuid.New()
	party := uuid.New()
	scoped := newTestList("B", 5, days(-10))
	listings := []Listing{{List: scoped, Entry: ptr(newTestEntry(scoped, productID, "1"))}}
	assignments := []PartyAssignment{{
		ID: uuid.New(), PriceListID: scoped.ID, BusinessPartyID: party, ValidTo: ptr(days(-1)),
	}}

	got := BuildCandidates(listings, assignments, &party, NewValidityFilter(testNow, decimal.NewFromInt(1)))
	assert.Empty(t, got)
}

func TestRankCandidates(t *testing.T) {
	older := newTestList("OLD", 2, days(-30))
	newer := newTestList("NEW", 2, days(-1))
	top := newTestList("TOP", 1, days(-60))
	partyList := newTestList("PARTY", 9, days(-60))
	override := newTestList("OVERRIDE", 9, days(-60))

	input := []Candidate{
		{List: older},
		{List: newer},
		{List: top},
		{List: partyList, Assignment: &PartyAssignment{}},
		{List: override, Assignment: &PartyAssignment{PriorityOverride: ptr(3)}},
	}

	ranked := RankCandidates(input)

	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.List.Name
	}
	assert.Equal(t, []string{"OVERRIDE", "PARTY", "TOP", "NEW", "OLD"}, names)
	assert.Equal(t, "OLD", input[0].List.Name, "input must not be reordered")
}
