package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPriceListRepository implements pricelist.Repository using GORM.
// Every read excludes soft-deleted rows.
type GormPriceListRepository struct {
	db *gorm.DB
}

// NewGormPriceListRepository creates a new GormPriceListRepository
func NewGormPriceListRepository(db *gorm.DB) *GormPriceListRepository {
	return &GormPriceListRepository{db: db}
}

func (r *GormPriceListRepository) lists(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PriceListModel{}).Where("is_deleted = ?", false)
}

func (r *GormPriceListRepository) entries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PriceListEntryModel{}).Where("is_deleted = ?", false)
}

func (r *GormPriceListRepository) assignments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PartyAssignmentModel{}).Where("is_deleted = ?", false)
}

// FindByID finds a price list by ID
func (r *GormPriceListRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricelist.PriceList, error) {
	var model models.PriceListModel
	if err := r.lists(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the price lists that exist among ids
func (r *GormPriceListRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]pricelist.PriceList, error) {
	if len(ids) == 0 {
		return []pricelist.PriceList{}, nil
	}
	return r.findLists(r.lists(ctx).Where("id IN ?", ids))
}

// FindByEventID finds every price list linked to an event
func (r *GormPriceListRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]pricelist.PriceList, error) {
	return r.findLists(r.lists(ctx).Where("event_id = ?", eventID))
}

// FindActiveByDirection finds active lists of a direction, highest precedence first.
// Equal priorities put the newest list first.
func (r *GormPriceListRepository) FindActiveByDirection(ctx context.Context, direction pricelist.Direction) ([]pricelist.PriceList, error) {
	return r.findLists(r.lists(ctx).
		Where("direction = ? AND status = ?", direction, pricelist.StatusActive).
		Order("priority ASC, created_at DESC, id ASC"))
}

func (r *GormPriceListRepository) findLists(query *gorm.DB) ([]pricelist.PriceList, error) {
	var listModels []models.PriceListModel
	if err := query.Find(&listModels).Error; err != nil {
		return nil, err
	}
	lists := make([]pricelist.PriceList, len(listModels))
	for i := range listModels {
		lists[i] = *listModels[i].ToDomain()
	}
	return lists, nil
}

// FindByProduct finds the entries of a product across all lists
func (r *GormPriceListRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]pricelist.Entry, error) {
	return r.findEntries(r.entries(ctx).Where("product_id = ?", productID))
}

// FindByListAndProduct finds the entries of a product inside one list
func (r *GormPriceListRepository) FindByListAndProduct(ctx context.Context, priceListID, productID uuid.UUID) ([]pricelist.Entry, error) {
	return r.findEntries(r.entries(ctx).Where("price_list_id = ? AND product_id = ?", priceListID, productID))
}

// FindByList finds every entry of a list
func (r *GormPriceListRepository) FindByList(ctx context.Context, priceListID uuid.UUID) ([]pricelist.Entry, error) {
	return r.findEntries(r.entries(ctx).Where("price_list_id = ?", priceListID))
}

func (r *GormPriceListRepository) findEntries(query *gorm.DB) ([]pricelist.Entry, error) {
	var entryModels []models.PriceListEntryModel
	if err := query.Order("created_at ASC, id ASC").Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]pricelist.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// FindByListIDs finds the business party associations of the given lists
func (r *GormPriceListRepository) FindByListIDs(ctx context.Context, priceListIDs []uuid.UUID) ([]pricelist.PartyAssignment, error) {
	if len(priceListIDs) == 0 {
		return []pricelist.PartyAssignment{}, nil
	}
	var assignmentModels []models.PartyAssignmentModel
	if err := r.assignments(ctx).Where("price_list_id IN ?", priceListIDs).Find(&assignmentModels).Error; err != nil {
		return nil, err
	}
	assignments := make([]pricelist.PartyAssignment, len(assignmentModels))
	for i := range assignmentModels {
		assignments[i] = assignmentModels[i].ToDomain()
	}
	return assignments, nil
}

// FindByListAndParty finds the association of a party with a list
func (r *GormPriceListRepository) FindByListAndParty(ctx context.Context, priceListID, businessPartyID uuid.UUID) (*pricelist.PartyAssignment, error) {
	var model models.PartyAssignmentModel
	if err := r.assignments(ctx).
		Where("price_list_id = ? AND business_party_id = ?", priceListID, businessPartyID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	assignment := model.ToDomain()
	return &assignment, nil
}

// CreateList inserts a new price list
func (r *GormPriceListRepository) CreateList(ctx context.Context, list *pricelist.PriceList) error {
	return r.db.WithContext(ctx).Create(models.PriceListModelFromDomain(list)).Error
}

// CreateEntries inserts new entries in one batch
func (r *GormPriceListRepository) CreateEntries(ctx context.Context, entries []*pricelist.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	entryModels := make([]*models.PriceListEntryModel, len(entries))
	for i, e := range entries {
		entryModels[i] = models.PriceListEntryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).CreateInBatches(entryModels, 100).Error
}

// CreateAssignments inserts new business party associations
func (r *GormPriceListRepository) CreateAssignments(ctx context.Context, assignments []*pricelist.PartyAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	assignmentModels := make([]*models.PartyAssignmentModel, len(assignments))
	for i, a := range assignments {
		assignmentModels[i] = models.PartyAssignmentModelFromDomain(a)
	}
	return r.db.WithContext(ctx).Create(assignmentModels).Error
}

// UpdateEntryPrice writes the new price only when the stored version still matches
func (r *GormPriceListRepository) UpdateEntryPrice(ctx context.Context, update pricelist.PriceUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&models.PriceListEntryModel{}).
		Where("id = ? AND version = ? AND is_deleted = ?", update.EntryID, update.ExpectedVersion, false).
		Updates(map[string]any{
			"price":       update.NewPrice,
			"version":     gorm.Expr("version + 1"),
			"modified_by": update.ModifiedBy,
			"updated_at":  update.ModifiedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteEntries soft-deletes entries
func (r *GormPriceListRepository) DeleteEntries(ctx context.Context, ids []uuid.UUID, modifiedBy string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.PriceListEntryModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"is_deleted":  true,
			"version":     gorm.Expr("version + 1"),
			"modified_by": modifiedBy,
			"updated_at":  at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateGeneration replaces the generation columns of a list and bumps its version
func (r *GormPriceListRepository) UpdateGeneration(ctx context.Context, priceListID uuid.UUID, meta pricelist.GenerationMetadata, modifiedBy string) error {
	var cols models.PriceListModel
	cols.SetGeneration(&meta)
	result := r.db.WithContext(ctx).
		Model(&models.PriceListModel{}).
		Where("id = ? AND is_deleted = ?", priceListID, false).
		Updates(map[string]any{
			"gen_strategy":          cols.GenStrategy,
			"gen_supplier_id":       cols.GenSupplierID,
			"gen_source_from":       cols.GenSourceFrom,
			"gen_source_to":         cols.GenSourceTo,
			"gen_document_count":    cols.GenDocumentCount,
			"gen_markup_percentage": cols.GenMarkupPercentage,
			"gen_rounding":          cols.GenRounding,
			"gen_generated_at":      cols.GenGeneratedAt,
			"modified_by":           modifiedBy,
			"updated_at":            meta.GeneratedAt,
			"version":               gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Compile-time interface check
var _ pricelist.Repository = (*GormPriceListRepository)(nil)
