package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// BOMComponent is one bill-of-materials row: building the product variant
// consumes the given quantity of the component variant.
type BOMComponent struct {
	shared.BaseEntity
	// ProductVariantID is the assembled variant
	ProductVariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	// ComponentVariantID is the consumed variant
	ComponentVariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Quantity is how much of the component one unit of the product consumes
	Quantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
}

// TableName returns the table name for GORM
func (BOMComponent) TableName() string {
	return "bom_components"
}

// IsSelfReference returns true when a row references itself as its own
// component, which the consistency audit flags as a mapping defect.
func (b *BOMComponent) IsSelfReference() bool {
	return b.ProductVariantID == b.ComponentVariantID
}

// BOMComponentRepository defines read access to bill-of-materials rows
type BOMComponentRepository interface {
	// FindAll returns all bill-of-materials rows (for the consistency audit)
	FindAll(ctx context.Context) ([]BOMComponent, error)

	// FindByProductVariant returns the components of one assembled variant
	FindByProductVariant(ctx context.Context, productVariantID uuid.UUID) ([]BOMComponent, error)
}
