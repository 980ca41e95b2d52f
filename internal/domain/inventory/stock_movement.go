package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// MovementKind classifies why stock changed
type MovementKind string

const (
	// MovementKindSale is a deduction caused by a shop order
	MovementKindSale MovementKind = "SALE"
	// MovementKindReturn is an increase caused by a returned order
	MovementKindReturn MovementKind = "RETURN"
	// MovementKindCorrection is a manual correction of the on-hand quantity
	MovementKindCorrection MovementKind = "MANUAL_CORRECTION"
	// MovementKindInitial is the initial stock setup for a variant
	MovementKindInitial MovementKind = "INITIAL"
)

// IsValid returns true if the movement kind is valid
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementKindSale, MovementKindReturn, MovementKindCorrection, MovementKindInitial:
		return true
	default:
		return false
	}
}

// String returns the string representation of MovementKind
func (k MovementKind) String() string {
	return string(k)
}

// StockMovement is one append-only ledger entry: a signed quantity change
// with a kind and a reference. The movement log is the source of truth for
// how the aggregate on-hand value changed; rows are never updated or deleted.
type StockMovement struct {
	shared.BaseEntity
	// VariantID is the internal stock-keeping variant
	VariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Quantity is the signed delta (negative for deductions)
	Quantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// Kind classifies the movement
	Kind MovementKind `gorm:"not null"`
	// Reference names the causing document (e.g. the external order ID)
	Reference string
	// Note is a free-text reason
	Note string
	// OccurredAt is when the change took effect
	OccurredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger entry after validating kind and quantity
func NewStockMovement(variantID uuid.UUID, quantity decimal.Decimal, kind MovementKind, reference, note string) (*StockMovement, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_KIND", "Unknown movement kind: "+string(kind))
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	return &StockMovement{
		BaseEntity: shared.NewBaseEntity(),
		VariantID:  variantID,
		Quantity:   quantity,
		Kind:       kind,
		Reference:  reference,
		Note:       note,
		OccurredAt: time.Now(),
	}, nil
}

// StockMovementRepository defines persistence for the append-only movement log
type StockMovementRepository interface {
	// Append inserts a new movement row
	Append(ctx context.Context, movement *StockMovement) error

	// FindByVariant returns movements for one variant, newest first
	FindByVariant(ctx context.Context, variantID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// SumByVariant sums all movement deltas for one variant
	SumByVariant(ctx context.Context, variantID uuid.UUID) (decimal.Decimal, error)
}
