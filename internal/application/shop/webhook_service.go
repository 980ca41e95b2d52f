package shop

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
	"github.com/werkbank-erp/backend/internal/infrastructure/logger"
)

// WebhookIntakeService is the entry point for order webhook deliveries. It
// logs every delivery as a WebhookEvent, short-circuits duplicates through
// the idempotency store when one is configured, and hands the payload to the
// order processor. The store is load relief only; the durable duplicate guard
// is the order's processed_at compare-and-set inside the processor.
type WebhookIntakeService struct {
	events      shop.WebhookEventRepository
	processor   *OrderProcessorService
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
}

// NewWebhookIntakeService creates a new WebhookIntakeService.
// The idempotency store may be nil; deduplication is then left entirely to
// the processor's compare-and-set.
func NewWebhookIntakeService(
	events shop.WebhookEventRepository,
	processor *OrderProcessorService,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
) *WebhookIntakeService {
	return &WebhookIntakeService{
		events:      events,
		processor:   processor,
		idempotency: idempotency,
		idemConfig:  idemConfig,
	}
}

// HandleOrderWebhook processes one order webhook delivery. The deliveryID is
// the platform-assigned delivery identifier used for the dedup fast path; it
// may be empty when the platform does not send one.
func (s *WebhookIntakeService) HandleOrderWebhook(ctx context.Context, topic, deliveryID string, raw []byte) (*ProcessOrderResult, error) {
	log := logger.FromContext(ctx).With(
		zap.String("topic", topic),
		zap.String("delivery_id", deliveryID))

	externalOrderID := peekExternalOrderID(raw)

	event := shop.NewWebhookEvent(topic, externalOrderID, string(raw))
	if err := s.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("recording webhook delivery: %w", err)
	}
	eventID := event.GetID()

	if s.dedupEnabled() && deliveryID != "" {
		seen, err := s.idempotency.IsProcessed(ctx, deliveryID)
		if err != nil {
			// The store being down must not lose orders. Fall through to the
			// processor, whose gate is authoritative.
			log.Warn("idempotency store unavailable, continuing without dedup", zap.Error(err))
		} else if seen {
			log.Info("duplicate webhook delivery short-circuited")
			s.markEventProcessed(ctx, event, "duplicate delivery")
			return &ProcessOrderResult{
				Skipped:         true,
				ExternalOrderID: externalOrderID,
			}, nil
		}
	}

	result, err := s.processor.ProcessOrder(ctx, raw, &eventID)
	if err != nil {
		return nil, err
	}

	// Record the delivery only once the order's ProcessedAt gate has fired.
	// A delivery whose processing failed, or whose order stayed unprocessed,
	// must remain retryable under the same delivery ID.
	if s.dedupEnabled() && deliveryID != "" && (result.Skipped || result.ProcessedItemCount > 0) {
		if _, err := s.idempotency.MarkProcessed(ctx, deliveryID, s.idemConfig.TTL); err != nil {
			log.Warn("failed to record delivery in idempotency store", zap.Error(err))
		}
	}
	return result, nil
}

// dedupEnabled reports whether the fast path is configured and active
func (s *WebhookIntakeService) dedupEnabled() bool {
	return s.idempotency != nil && s.idemConfig.Enabled
}

// markEventProcessed closes a short-circuited delivery's log row. Best effort.
func (s *WebhookIntakeService) markEventProcessed(ctx context.Context, event *shop.WebhookEvent, note string) {
	if err := s.events.UpdateStatus(ctx, event.GetID(), shop.WebhookEventStatusProcessed, note); err != nil {
		logger.FromContext(ctx).Warn("failed to update webhook delivery log",
			zap.String("webhook_event_id", event.GetID().String()),
			zap.Error(err))
	}
}

// peekExternalOrderID extracts the order ID from the raw payload without full
// validation, so even unparseable deliveries are logged against an order when
// possible. Returns "" when the payload does not expose one.
func peekExternalOrderID(raw []byte) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.ID
}
