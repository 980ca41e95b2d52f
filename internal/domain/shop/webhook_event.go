package shop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// WebhookEventStatus is the processing status of a webhook delivery
type WebhookEventStatus string

const (
	// WebhookEventStatusReceived indicates the delivery was stored but not processed
	WebhookEventStatusReceived WebhookEventStatus = "RECEIVED"
	// WebhookEventStatusProcessed indicates processing finished without issues
	WebhookEventStatusProcessed WebhookEventStatus = "PROCESSED"
	// WebhookEventStatusFailed indicates processing finished with an error message
	WebhookEventStatusFailed WebhookEventStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s WebhookEventStatus) IsValid() bool {
	switch s {
	case WebhookEventStatusReceived, WebhookEventStatusProcessed, WebhookEventStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of WebhookEventStatus
func (s WebhookEventStatus) String() string {
	return string(s)
}

// WebhookEvent logs one webhook delivery for observability. It is independent
// of ExternalOrder.ProcessedAt, which is the actual idempotency gate: a
// duplicate delivery produces a second WebhookEvent row but no second
// inventory effect.
type WebhookEvent struct {
	shared.BaseEntity
	// Topic is the webhook topic (e.g. "orders/paid")
	Topic string `gorm:"not null"`
	// ExternalOrderID is the shop-assigned order ID the delivery refers to
	ExternalOrderID string `gorm:"index"`
	// Status is the processing status of this delivery
	Status WebhookEventStatus `gorm:"not null;default:RECEIVED"`
	// ErrorMessage holds the failure reason when Status is FAILED
	ErrorMessage string
	// Payload is the raw delivery body snapshot (JSON)
	Payload string `gorm:"type:jsonb"`
	// ReceivedAt is when the delivery arrived
	ReceivedAt time.Time `gorm:"not null"`
	// ProcessedAt is when processing of this delivery finished
	ProcessedAt *time.Time
}

// TableName returns the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// NewWebhookEvent creates a received webhook event
func NewWebhookEvent(topic, externalOrderID, payload string) *WebhookEvent {
	return &WebhookEvent{
		BaseEntity:      shared.NewBaseEntity(),
		Topic:           topic,
		ExternalOrderID: externalOrderID,
		Status:          WebhookEventStatusReceived,
		Payload:         payload,
		ReceivedAt:      time.Now(),
	}
}

// MarkProcessed transitions the event to PROCESSED
func (e *WebhookEvent) MarkProcessed() {
	now := time.Now()
	e.Status = WebhookEventStatusProcessed
	e.ErrorMessage = ""
	e.ProcessedAt = &now
	e.Touch()
}

// MarkFailed transitions the event to FAILED with a reason
func (e *WebhookEvent) MarkFailed(reason string) {
	now := time.Now()
	e.Status = WebhookEventStatusFailed
	e.ErrorMessage = reason
	e.ProcessedAt = &now
	e.Touch()
}

// WebhookEventRepository defines persistence for webhook delivery logs
type WebhookEventRepository interface {
	// FindByID finds a webhook event by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*WebhookEvent, error)

	// Save creates or updates a webhook event
	Save(ctx context.Context, event *WebhookEvent) error

	// UpdateStatus updates status, error message and processed timestamp
	UpdateStatus(ctx context.Context, id uuid.UUID, status WebhookEventStatus, errorMessage string) error

	// FindRecentByExternalOrder returns deliveries for one order, newest first
	FindRecentByExternalOrder(ctx context.Context, externalOrderID string, limit int) ([]WebhookEvent, error)
}
