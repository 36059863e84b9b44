package pricing

import (
	"context"
	"fmt"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrecedenceValidatorService reports consistency issues among the lists of an event
type PrecedenceValidatorService struct {
	lists   pricelist.Reader
	options pricelist.AnalysisOptions
	clock   shared.Clock
	logger  *zap.Logger
}

// NewPrecedenceValidatorService creates a new PrecedenceValidatorService
func NewPrecedenceValidatorService(
	lists pricelist.Reader,
	options pricelist.AnalysisOptions,
	clock shared.Clock,
	logger *zap.Logger,
) *PrecedenceValidatorService {
	return &PrecedenceValidatorService{
		lists:   lists,
		options: options,
		clock:   clock,
		logger:  logger,
	}
}

// Validate analyses every list linked to the event without modifying anything
func (s *PrecedenceValidatorService) Validate(ctx context.Context, eventID uuid.UUID) (*ValidationReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lists, err := s.lists.FindByEventID(ctx, eventID)
	if err != nil {
		s.logger.Error("Failed to load event price lists", zap.String("event_id", eventID.String()), zap.Error(err))
		return nil, fmt.Errorf("load event price lists: %w", err)
	}

	analysis := pricelist.AnalyzePrecedence(lists, s.clock.Now(), s.options)

	report := &ValidationReport{
		EventID:            eventID,
		IsValid:            analysis.IsValid(),
		ListCount:          analysis.ListCount,
		ActiveCount:        analysis.ActiveCount,
		RecommendedDefault: analysis.RecommendedDefault,
		Issues:             make([]ValidationIssue, len(analysis.Issues)),
	}
	for i, issue := range analysis.Issues {
		report.Issues[i] = ValidationIssue{
			Severity:     issue.Severity,
			Code:         issue.Code,
			Message:      issue.Message,
			PriceListIDs: issue.PriceListIDs,
		}
	}
	if !report.IsValid {
		s.logger.Warn("Price list precedence issues found",
			zap.String("event_id", eventID.String()),
			zap.Int("issues", len(report.Issues)))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return report, nil
}
