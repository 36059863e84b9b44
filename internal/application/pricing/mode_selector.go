package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModeSelection is the outcome of mode selection
type ModeSelection struct {
	Mode pricelist.ApplicationMode
	// Party is set when the selector loaded the business party
	Party    *partner.BusinessParty
	Warnings []string
	Steps    []string
}

// ModeSelector decides which resolution strategy governs a request
type ModeSelector struct {
	parties partner.Reader
	logger  *zap.Logger
}

// NewModeSelector creates a new ModeSelector
func NewModeSelector(parties partner.Reader, logger *zap.Logger) *ModeSelector {
	return &ModeSelector{parties: parties, logger: logger}
}

// Select applies, in order: explicit mode, no party → Automatic, missing party →
// Automatic with a warning, otherwise the party's configured default mode.
// Only a storage error fails the call.
func (s *ModeSelector) Select(
	ctx context.Context,
	explicit *pricelist.ApplicationMode,
	businessPartyID *uuid.UUID,
) (ModeSelection, error) {
	if explicit != nil {
		if !explicit.IsValid() {
			return ModeSelection{}, shared.NewInvalidInputError("INVALID_MODE",
				fmt.Sprintf("Unknown price application mode %q", *explicit))
		}
		return ModeSelection{
			Mode:  *explicit,
			Steps: []string{fmt.Sprintf("mode %s requested explicitly", *explicit)},
		}, nil
	}

	if businessPartyID == nil {
		return ModeSelection{
			Mode:  pricelist.ModeAutomatic,
			Steps: []string{"no mode and no business party supplied; using automatic mode"},
		}, nil
	}

	party, err := s.parties.FindByID(ctx, *businessPartyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			warning := fmt.Sprintf("business party %s not found; using automatic mode", *businessPartyID)
			s.logger.Warn("Business party not found during mode selection",
				zap.String("business_party_id", businessPartyID.String()))
			return ModeSelection{
				Mode:     pricelist.ModeAutomatic,
				Warnings: []string{warning},
				Steps:    []string{warning},
			}, nil
		}
		s.logger.Error("Failed to load business party",
			zap.String("business_party_id", businessPartyID.String()),
			zap.Error(err))
		return ModeSelection{}, fmt.Errorf("load business party: %w", err)
	}

	mode := party.PriceMode()
	return ModeSelection{
		Mode:  mode,
		Party: party,
		Steps: []string{fmt.Sprintf("mode %s taken from business party %s", mode, party.Code)},
	}, nil
}
