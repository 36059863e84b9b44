package pricelist

import "fmt"

// ApplicationMode selects which resolution strategy governs a price request.
// The set is closed: every switch over it must handle all four values.
type ApplicationMode string

const (
	ModeManual          ApplicationMode = "manual"
	ModeForcedPriceList ApplicationMode = "forced_price_list"
	ModeHybrid          ApplicationMode = "hybrid"
	ModeAutomatic       ApplicationMode = "automatic"
)

// ApplicationModes lists every mode in declaration order
var ApplicationModes = []ApplicationMode{ModeManual, ModeForcedPriceList, ModeHybrid, ModeAutomatic}

// IsValid reports whether m is one of the declared modes
func (m ApplicationMode) IsValid() bool {
	switch m {
	case ModeManual, ModeForcedPriceList, ModeHybrid, ModeAutomatic:
		return true
	}
	return false
}

// String returns the mode name
func (m ApplicationMode) String() string {
	return string(m)
}

// ParseApplicationMode converts a string to an ApplicationMode
func ParseApplicationMode(s string) (ApplicationMode, error) {
	m := ApplicationMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown price application mode %q", s)
	}
	return m, nil
}

// PriceSource tags which tier of the cascading resolver produced a price.
type PriceSource string

const (
	SourceParameterList PriceSource = "parameter_list"
	SourceDocumentList  PriceSource = "document_list"
	SourcePartyList     PriceSource = "party_list"
	SourceGeneralList   PriceSource = "general_list"
	SourceDefaultPrice  PriceSource = "default_price"
)

// PriceSources lists every source in cascade order
var PriceSources = []PriceSource{
	SourceParameterList,
	SourceDocumentList,
	SourcePartyList,
	SourceGeneralList,
	SourceDefaultPrice,
}

// IsValid reports whether s is one of the declared sources
func (s PriceSource) IsValid() bool {
	switch s {
	case SourceParameterList, SourceDocumentList, SourcePartyList, SourceGeneralList, SourceDefaultPrice:
		return true
	}
	return false
}

// String returns the source name
func (s PriceSource) String() string {
	return string(s)
}
