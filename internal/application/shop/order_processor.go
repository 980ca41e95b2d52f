package shop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appInventory "github.com/werkbank-erp/backend/internal/application/inventory"
	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shop"
	"github.com/werkbank-erp/backend/internal/infrastructure/logger"
)

// errAlreadyProcessed signals inside the transaction that the CAS gate lost
// the race. It forces a rollback of everything written in the attempt and is
// translated to a skipped result by the caller.
var errAlreadyProcessed = errors.New("order processor: order already processed")

// OrderProcessorService turns one order webhook payload into persisted line
// item outcomes and stock deductions. The whole effect of one order runs in a
// single transaction: header upsert, outcome rows, the compare-and-set on
// ProcessedAt, movement log entries and stock level decrements all commit or
// roll back together.
type OrderProcessorService struct {
	scope  TransactionScope
	events shop.WebhookEventRepository
	ledger *appInventory.LedgerService
}

// NewOrderProcessorService creates a new OrderProcessorService
func NewOrderProcessorService(
	scope TransactionScope,
	events shop.WebhookEventRepository,
	ledger *appInventory.LedgerService,
) *OrderProcessorService {
	return &OrderProcessorService{
		scope:  scope,
		events: events,
		ledger: ledger,
	}
}

// ProcessOrder processes one raw order payload end to end and returns a
// summary. The webhookEventID, when non-nil, names the delivery log row to
// update after the attempt; updating it is best-effort and never changes the
// processing outcome.
//
// A payload that cannot be parsed fails before anything is written. An order
// whose ProcessedAt is already set is skipped without any inventory effect.
// Unmapped line items and insufficient stock produce warnings, not failures.
func (s *OrderProcessorService) ProcessOrder(ctx context.Context, raw []byte, webhookEventID *uuid.UUID) (*ProcessOrderResult, error) {
	log := logger.FromContext(ctx)

	payload, err := shop.ParseOrderPayload(raw)
	if err != nil {
		s.updateWebhookLog(ctx, webhookEventID, shop.WebhookEventStatusFailed, err.Error())
		return nil, err
	}
	log = log.With(zap.String("external_order_id", payload.ExternalOrderID))

	result := &ProcessOrderResult{ExternalOrderID: payload.ExternalOrderID}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return s.processInTransaction(ctx, repos, payload, string(raw), result)
	})
	if errors.Is(err, errAlreadyProcessed) {
		log.Info("skipping already processed order")
		result.Skipped = true
		result.ProcessedItemCount = 0
		result.UnmappedItemCount = 0
		result.InsufficientStockCount = 0
		result.Warnings = nil
		s.updateWebhookLog(ctx, webhookEventID, shop.WebhookEventStatusProcessed, "duplicate delivery, order already processed")
		return result, nil
	}
	if err != nil {
		s.updateWebhookLog(ctx, webhookEventID, shop.WebhookEventStatusFailed, err.Error())
		return nil, err
	}

	result.Success = true
	if len(result.Warnings) > 0 {
		s.updateWebhookLog(ctx, webhookEventID, shop.WebhookEventStatusFailed, strings.Join(result.Warnings, "; "))
	} else {
		s.updateWebhookLog(ctx, webhookEventID, shop.WebhookEventStatusProcessed, "")
	}

	log.Info("processed order",
		zap.String("order_id", result.OrderID.String()),
		zap.Int("processed_items", result.ProcessedItemCount),
		zap.Int("unmapped_items", result.UnmappedItemCount),
		zap.Int("insufficient_stock", result.InsufficientStockCount))
	return result, nil
}

// processInTransaction runs the whole order effect against transaction-scoped
// repositories. Returning an error rolls everything back.
func (s *OrderProcessorService) processInTransaction(
	ctx context.Context,
	repos TransactionalRepositories,
	payload *shop.OrderPayload,
	raw string,
	result *ProcessOrderResult,
) error {
	log := logger.FromContext(ctx).With(zap.String("external_order_id", payload.ExternalOrderID))

	// Upsert the header first so repeated deliveries converge on one row.
	// ProcessedAt survives the upsert untouched.
	header := shop.NewExternalOrderFromPayload(payload, raw)
	if err := repos.Orders().Upsert(ctx, header); err != nil {
		return fmt.Errorf("upserting order header: %w", err)
	}
	order, err := repos.Orders().FindByExternalID(ctx, payload.ExternalOrderID)
	if err != nil {
		return fmt.Errorf("reloading order header: %w", err)
	}
	result.OrderID = order.GetID()
	if order.IsProcessed() {
		return errAlreadyProcessed
	}
	// Each attempt reports its own problems. Text carried over from a prior
	// failed attempt would otherwise duplicate on every redelivery.
	order.ErrorMessage = ""

	lineItems, warnings, err := s.mapLineItems(ctx, repos, order.GetID(), payload)
	if err != nil {
		return err
	}
	result.Warnings = append(result.Warnings, warnings...)

	if len(lineItems) > 0 {
		if err := repos.LineItems().SaveBatch(ctx, lineItems); err != nil {
			return fmt.Errorf("saving line item outcomes: %w", err)
		}
	}

	deductions := aggregateDeductions(lineItems)
	for _, item := range lineItems {
		switch item.MappingStatus {
		case shop.MappingStatusMapped:
			result.ProcessedItemCount++
		case shop.MappingStatusUnmapped:
			result.UnmappedItemCount++
		}
	}

	if summary := shop.UnmappedSummary(lineItems); summary != "" {
		order.AppendError(summary)
	}

	if len(deductions) == 0 {
		// Nothing mapped. The order stays unprocessed so a later delivery,
		// after mappings were fixed, can still deduct.
		order.AppendError("no line item could be mapped to an internal variant")
		if err := repos.Orders().UpdateErrorMessage(ctx, order.ExternalOrderID, order.ErrorMessage); err != nil {
			return fmt.Errorf("recording order errors: %w", err)
		}
		log.Warn("order has no mappable line items",
			zap.Int("line_items", len(payload.LineItems)))
		return nil
	}

	// Check coverage before deducting. Insufficient stock only warns; the
	// deduction below still happens and the on-hand value may go negative.
	stockWarnings, insufficient, err := s.checkStock(ctx, repos.StockLevels(), deductions)
	if err != nil {
		return err
	}
	result.Warnings = append(result.Warnings, stockWarnings...)
	result.InsufficientStockCount = insufficient
	for _, w := range stockWarnings {
		order.AppendError(w)
	}

	// The CAS gate. RowsAffected 0 means a concurrent attempt won; roll the
	// whole attempt back so no double deduction can slip through.
	marked, err := repos.Orders().MarkProcessed(ctx, order.ExternalOrderID, time.Now())
	if err != nil {
		return fmt.Errorf("marking order processed: %w", err)
	}
	if !marked {
		return errAlreadyProcessed
	}

	for _, d := range deductions {
		if err := s.ledger.RecordSale(ctx, repos.StockLevels(), repos.StockMovements(), d.VariantID, d.Quantity, order.ExternalOrderID); err != nil {
			return fmt.Errorf("deducting variant %s: %w", d.VariantID, err)
		}
	}

	// Written unconditionally so a clean attempt wipes text left by an
	// earlier failed one.
	if err := repos.Orders().UpdateErrorMessage(ctx, order.ExternalOrderID, order.ErrorMessage); err != nil {
		return fmt.Errorf("recording order errors: %w", err)
	}
	return nil
}

// mapLineItems resolves and matches every payload line item and returns the
// outcome rows to persist. Unmapped items become UNMAPPED rows plus a
// warning; they never abort the order.
func (s *OrderProcessorService) mapLineItems(
	ctx context.Context,
	repos TransactionalRepositories,
	orderID uuid.UUID,
	payload *shop.OrderPayload,
) ([]*shop.OrderLineItem, []string, error) {
	log := logger.FromContext(ctx).With(zap.String("external_order_id", payload.ExternalOrderID))

	items := make([]*shop.OrderLineItem, 0, len(payload.LineItems))
	var warnings []string

	for i := range payload.LineItems {
		li := payload.LineItems[i]

		resolvedID, _, err := resolveVariantChain(ctx, repos.IdentityEdges(), li.ExternalProductID, li.ExternalVariantID)
		if err != nil {
			if errors.Is(err, shop.ErrResolutionCycle) {
				// A corrupt identity chain must not block the order. Fall
				// back to the delivered ID and surface the problem.
				warnings = append(warnings, fmt.Sprintf("identity chain cycle for variant %s, using delivered ID", li.ExternalVariantID))
				log.Warn("identity chain cycle, falling back to delivered variant ID",
					zap.String("external_variant_id", li.ExternalVariantID),
					zap.Error(err))
				resolvedID = li.ExternalVariantID
			} else {
				return nil, nil, err
			}
		}

		matches, err := matchLineItem(ctx, repos.VariantMappings(), repos.PropertyMappings(), resolvedID, li.Properties)
		if err != nil {
			return nil, nil, err
		}

		if len(matches) == 0 {
			reason := fmt.Sprintf("no mapping for line item %s (resolved variant %s)", li.Describe(), resolvedID)
			items = append(items, shop.NewUnmappedLineItem(orderID, li, resolvedID, reason))
			warnings = append(warnings, reason)
			continue
		}
		for _, match := range matches {
			items = append(items, shop.NewMappedLineItem(orderID, li, resolvedID, match))
		}
	}
	return items, warnings, nil
}

// checkStock compares the aggregated deductions against current on-hand
// values and returns a warning per undercovered variant. A variant without a
// stock level row counts as zero on hand.
func (s *OrderProcessorService) checkStock(
	ctx context.Context,
	levels inventory.StockLevelRepository,
	deductions []StockDeduction,
) ([]string, int, error) {
	ids := make([]uuid.UUID, 0, len(deductions))
	for _, d := range deductions {
		ids = append(ids, d.VariantID)
	}
	rows, err := levels.FindByVariants(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("loading stock levels: %w", err)
	}
	onHand := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		onHand[row.VariantID] = row.QuantityOnHand
	}

	var warnings []string
	insufficient := 0
	for _, d := range deductions {
		available := onHand[d.VariantID]
		if available.LessThan(d.Quantity) {
			insufficient++
			warnings = append(warnings, fmt.Sprintf("insufficient stock for variant %s: need %s, have %s",
				d.VariantID, d.Quantity.String(), available.String()))
		}
	}
	return warnings, insufficient, nil
}

// aggregateDeductions sums mapped row quantities per internal variant so each
// variant is deducted exactly once per order. The result is sorted by variant
// ID for a deterministic deduction order.
func aggregateDeductions(items []*shop.OrderLineItem) []StockDeduction {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, item := range items {
		if item.MappingStatus != shop.MappingStatusMapped || item.InternalVariantID == nil {
			continue
		}
		id := *item.InternalVariantID
		totals[id] = totals[id].Add(item.Quantity)
	}

	deductions := make([]StockDeduction, 0, len(totals))
	for id, qty := range totals {
		deductions = append(deductions, StockDeduction{VariantID: id, Quantity: qty})
	}
	sort.Slice(deductions, func(i, j int) bool {
		return deductions[i].VariantID.String() < deductions[j].VariantID.String()
	})
	return deductions
}

// updateWebhookLog records the processing outcome on the delivery log row.
// Failures here are logged and swallowed; the log is an audit aid, never a
// participant in the processing outcome.
func (s *OrderProcessorService) updateWebhookLog(ctx context.Context, eventID *uuid.UUID, status shop.WebhookEventStatus, message string) {
	if eventID == nil || s.events == nil {
		return
	}
	if err := s.events.UpdateStatus(ctx, *eventID, status, message); err != nil {
		logger.FromContext(ctx).Warn("failed to update webhook delivery log",
			zap.String("webhook_event_id", eventID.String()),
			zap.Error(err))
	}
}
