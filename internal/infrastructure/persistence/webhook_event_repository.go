package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// GormWebhookEventRepository implements WebhookEventRepository using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// FindByID finds a webhook event by its ID
func (r *GormWebhookEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.WebhookEvent, error) {
	var event shop.WebhookEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Save creates or updates a webhook event
func (r *GormWebhookEventRepository) Save(ctx context.Context, event *shop.WebhookEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// UpdateStatus updates status, error message and processed timestamp
func (r *GormWebhookEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shop.WebhookEventStatus, errorMessage string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&shop.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
			"processed_at":  now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shop.ErrWebhookEventNotFound
	}
	return nil
}

// FindRecentByExternalOrder returns deliveries for one order, newest first
func (r *GormWebhookEventRepository) FindRecentByExternalOrder(ctx context.Context, externalOrderID string, limit int) ([]shop.WebhookEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	var events []shop.WebhookEvent
	if err := r.db.WithContext(ctx).
		Where("external_order_id = ?", externalOrderID).
		Order("received_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Ensure GormWebhookEventRepository implements WebhookEventRepository
var _ shop.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
