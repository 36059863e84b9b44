package pricelist

import (
	"sort"

	"github.com/google/uuid"
)

// Candidate is one listing eligible for automatic resolution
type Candidate struct {
	List  *PriceList
	Entry *Entry
	// Assignment is the requesting party's association with the list; nil for generic lists
	Assignment *PartyAssignment
}

// PartyAssigned reports whether the candidate comes from a party-scoped list
func (c Candidate) PartyAssigned() bool {
	return c.Assignment != nil
}

// EffectivePriority is the assignment override when present, else the list priority
func (c Candidate) EffectivePriority() int {
	if c.Assignment != nil {
		return c.Assignment.EffectivePriority(c.List)
	}
	return c.List.Priority
}

// BuildCandidates classifies listings as generic or party-scoped.
//
// A list with no live associations is generic. A list with associations is a
// candidate only for a party holding a live association covering the instant;
// without a party it is invisible.
func BuildCandidates(
	listings []Listing,
	assignments []PartyAssignment,
	partyID *uuid.UUID,
	filter ValidityFilter,
) []Candidate {
	byList := make(map[uuid.UUID][]*PartyAssignment)
	for i := range assignments {
		a := &assignments[i]
		if a.IsDeleted {
			continue
		}
		byList[a.PriceListID] = append(byList[a.PriceListID], a)
	}

	candidates := make([]Candidate, 0, len(listings))
	for _, l := range listings {
		scoped := byList[l.List.ID]
		if len(scoped) == 0 {
			candidates = append(candidates, Candidate{List: l.List, Entry: l.Entry})
			continue
		}
		if partyID == nil {
			continue
		}
		for _, a := range scoped {
			if a.BusinessPartyID == *partyID && filter.AcceptsAssignment(a) {
				candidates = append(candidates, Candidate{List: l.List, Entry: l.Entry, Assignment: a})
				break
			}
		}
	}
	return candidates
}

// RankCandidates returns a new slice ordered by precedence:
// party-assigned before generic, then effective priority ascending,
// then list creation time descending (newest wins exact ties).
func RankCandidates(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.PartyAssigned() != b.PartyAssigned() {
			return a.PartyAssigned()
		}
		if pa, pb := a.EffectivePriority(), b.EffectivePriority(); pa != pb {
			return pa < pb
		}
		return a.List.CreatedAt.After(b.List.CreatedAt)
	})
	return ranked
}
