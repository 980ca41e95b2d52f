package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// GormStockLevelRepository implements StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindByVariant finds the stock level for one variant
func (r *GormStockLevelRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) (*inventory.StockLevel, error) {
	var level inventory.StockLevel
	if err := r.db.WithContext(ctx).
		First(&level, "variant_id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindByVariants returns stock levels for the given variants
func (r *GormStockLevelRepository) FindByVariants(ctx context.Context, variantIDs []uuid.UUID) ([]inventory.StockLevel, error) {
	if len(variantIDs) == 0 {
		return []inventory.StockLevel{}, nil
	}
	var levels []inventory.StockLevel
	if err := r.db.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// AdjustQuantity applies a signed delta in one atomic statement. The upsert
// arithmetic runs inside the database, so concurrent orders touching the same
// variant never lose an update. A variant without a row starts from zero.
func (r *GormStockLevelRepository) AdjustQuantity(ctx context.Context, variantID uuid.UUID, delta decimal.Decimal) error {
	level, err := inventory.NewStockLevel(variantID, delta)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "variant_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity_on_hand": gorm.Expr("stock_levels.quantity_on_hand + ?", delta),
				"updated_at":       gorm.Expr("NOW()"),
			}),
		}).
		Create(level).Error
}

// Save creates or updates a stock level row
func (r *GormStockLevelRepository) Save(ctx context.Context, level *inventory.StockLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// Ensure GormStockLevelRepository implements StockLevelRepository
var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts a new movement row into the append-only log
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByVariant returns movements for one variant, newest first
func (r *GormStockMovementRepository) FindByVariant(ctx context.Context, variantID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("occurred_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// SumByVariant sums all movement deltas for one variant
func (r *GormStockMovementRepository) SumByVariant(ctx context.Context, variantID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("variant_id = ?", variantID).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
