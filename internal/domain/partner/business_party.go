package partner

import (
	"strings"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
)

// BusinessParty is a customer or supplier as seen by the pricing engine
type BusinessParty struct {
	shared.BaseEntity
	Code string
	Name string
	// DefaultPriceApplicationMode governs requests that carry no explicit mode
	DefaultPriceApplicationMode pricelist.ApplicationMode
	ForcedPriceListID           *uuid.UUID
	DefaultSalesPriceListID     *uuid.UUID
	DefaultPurchasePriceListID  *uuid.UUID
}

// NewBusinessParty creates a party resolving prices automatically
func NewBusinessParty(code, name string) (*BusinessParty, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewInvalidInputError("INVALID_CODE", "Business party code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewInvalidInputError("INVALID_NAME", "Business party name cannot be empty")
	}
	return &BusinessParty{
		BaseEntity:                  shared.NewBaseEntity(),
		Code:                        strings.ToUpper(code),
		Name:                        name,
		DefaultPriceApplicationMode: pricelist.ModeAutomatic,
	}, nil
}

// PriceMode returns the configured default mode, Automatic when unset or unknown
func (p *BusinessParty) PriceMode() pricelist.ApplicationMode {
	if !p.DefaultPriceApplicationMode.IsValid() {
		return pricelist.ModeAutomatic
	}
	return p.DefaultPriceApplicationMode
}

// DefaultListFor returns the party's default list for a direction
func (p *BusinessParty) DefaultListFor(direction pricelist.Direction) *uuid.UUID {
	switch direction {
	case pricelist.DirectionInput:
		return p.DefaultPurchasePriceListID
	case pricelist.DirectionOutput:
		return p.DefaultSalesPriceListID
	}
	return nil
}
