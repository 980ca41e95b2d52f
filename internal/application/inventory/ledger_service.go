package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/infrastructure/logger"
)

// LedgerService owns the pairing of the append-only movement log with the
// atomic aggregate adjustment. Every on-hand change goes through one of its
// methods, which always write both sides. The repositories are passed per
// call so the pair executes inside the caller's unit of work: when invoked
// from a transaction scope, the movement row and the aggregate update commit
// or roll back together.
type LedgerService struct{}

// NewLedgerService creates a new LedgerService
func NewLedgerService() *LedgerService {
	return &LedgerService{}
}

// RecordSale appends a SALE movement with a negative delta and atomically
// decrements the variant's on-hand quantity by the same amount. The quantity
// must be positive; the reference names the causing external order.
func (s *LedgerService) RecordSale(
	ctx context.Context,
	levels inventory.StockLevelRepository,
	movements inventory.StockMovementRepository,
	variantID uuid.UUID,
	quantity decimal.Decimal,
	reference string,
) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Sale quantity must be positive")
	}
	return s.record(ctx, levels, movements, variantID, quantity.Neg(), inventory.MovementKindSale, reference, "")
}

// RecordReturn appends a RETURN movement and atomically increments on-hand
func (s *LedgerService) RecordReturn(
	ctx context.Context,
	levels inventory.StockLevelRepository,
	movements inventory.StockMovementRepository,
	variantID uuid.UUID,
	quantity decimal.Decimal,
	reference string,
) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	return s.record(ctx, levels, movements, variantID, quantity, inventory.MovementKindReturn, reference, "")
}

// RecordCorrection appends a MANUAL_CORRECTION movement with the given signed
// delta and atomically adjusts on-hand. A note explaining the correction is
// required for the audit trail.
func (s *LedgerService) RecordCorrection(
	ctx context.Context,
	levels inventory.StockLevelRepository,
	movements inventory.StockMovementRepository,
	variantID uuid.UUID,
	delta decimal.Decimal,
	note string,
) error {
	if note == "" {
		return shared.NewDomainError("INVALID_REASON", "Correction note is required")
	}
	return s.record(ctx, levels, movements, variantID, delta, inventory.MovementKindCorrection, "", note)
}

// record writes the movement row and applies the aggregate adjustment
func (s *LedgerService) record(
	ctx context.Context,
	levels inventory.StockLevelRepository,
	movements inventory.StockMovementRepository,
	variantID uuid.UUID,
	delta decimal.Decimal,
	kind inventory.MovementKind,
	reference, note string,
) error {
	movement, err := inventory.NewStockMovement(variantID, delta, kind, reference, note)
	if err != nil {
		return err
	}
	if err := movements.Append(ctx, movement); err != nil {
		return fmt.Errorf("appending stock movement: %w", err)
	}
	if err := levels.AdjustQuantity(ctx, variantID, delta); err != nil {
		return fmt.Errorf("adjusting stock level: %w", err)
	}

	logger.FromContext(ctx).Debug("recorded stock movement",
		zap.String("variant_id", variantID.String()),
		zap.String("delta", delta.String()),
		zap.String("kind", kind.String()),
		zap.String("reference", reference))
	return nil
}
