package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// StockLevel is the aggregate on-hand quantity for one internal variant.
// There is exactly one row per variant. The quantity is never mutated via
// read-then-write in application memory: all changes go through the
// repository's atomic AdjustQuantity so concurrent orders touching the same
// variant cannot lose an update.
type StockLevel struct {
	shared.BaseEntity
	// VariantID is the internal stock-keeping variant (unique)
	VariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	// QuantityOnHand is the current aggregate on-hand quantity.
	// Deducting past zero is allowed and produces a negative on-hand;
	// insufficient stock is reported as a warning, not an error.
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a stock level row for a variant
func NewStockLevel(variantID uuid.UUID, quantity decimal.Decimal) (*StockLevel, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	return &StockLevel{
		BaseEntity:     shared.NewBaseEntity(),
		VariantID:      variantID,
		QuantityOnHand: quantity,
	}, nil
}

// CanFulfill returns true if on-hand covers the requested quantity
func (s *StockLevel) CanFulfill(quantity decimal.Decimal) bool {
	return s.QuantityOnHand.GreaterThanOrEqual(quantity)
}

// StockLevelRepository defines persistence for aggregate stock levels
type StockLevelRepository interface {
	// FindByVariant finds the stock level for one variant
	FindByVariant(ctx context.Context, variantID uuid.UUID) (*StockLevel, error)

	// FindByVariants returns stock levels for the given variants.
	// Variants without a row are simply absent from the result.
	FindByVariants(ctx context.Context, variantIDs []uuid.UUID) ([]StockLevel, error)

	// AdjustQuantity applies a signed delta to the on-hand quantity in a
	// single atomic statement. A variant without a stock level row starts
	// from zero, so the result may be negative.
	AdjustQuantity(ctx context.Context, variantID uuid.UUID, delta decimal.Decimal) error

	// Save creates or updates a stock level row (initial stock setup)
	Save(ctx context.Context, level *StockLevel) error
}
