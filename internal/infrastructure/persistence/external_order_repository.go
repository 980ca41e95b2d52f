package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// GormExternalOrderRepository implements ExternalOrderRepository using GORM
type GormExternalOrderRepository struct {
	db *gorm.DB
}

// NewGormExternalOrderRepository creates a new GormExternalOrderRepository
func NewGormExternalOrderRepository(db *gorm.DB) *GormExternalOrderRepository {
	return &GormExternalOrderRepository{db: db}
}

// FindByExternalID finds an order by its shop-assigned ID
func (r *GormExternalOrderRepository) FindByExternalID(ctx context.Context, externalOrderID string) (*shop.ExternalOrder, error) {
	var order shop.ExternalOrder
	if err := r.db.WithContext(ctx).
		First(&order, "external_order_id = ?", externalOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Upsert inserts the order header, or refreshes the payload snapshot and
// platform fields on conflict of external_order_id. ProcessedAt and
// ErrorMessage belong to processing state and are never touched here.
func (r *GormExternalOrderRepository) Upsert(ctx context.Context, order *shop.ExternalOrder) error {
	return r.db.WithContext(ctx).
		Omit("LineItems").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"order_number", "platform_status", "total_amount", "currency",
				"customer_name", "customer_email", "raw_payload", "updated_at",
			}),
		}).
		Create(order).Error
}

// Save persists changes to an existing order header
func (r *GormExternalOrderRepository) Save(ctx context.Context, order *shop.ExternalOrder) error {
	return r.db.WithContext(ctx).Omit("LineItems").Save(order).Error
}

// MarkProcessed performs the compare-and-set unprocessed -> processed
// transition. The WHERE clause on processed_at IS NULL is what makes
// concurrent attempts safe: exactly one update can win.
func (r *GormExternalOrderRepository) MarkProcessed(ctx context.Context, externalOrderID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&shop.ExternalOrder{}).
		Where("external_order_id = ? AND processed_at IS NULL", externalOrderID).
		Updates(map[string]interface{}{
			"processed_at": at,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateErrorMessage replaces the order's error message
func (r *GormExternalOrderRepository) UpdateErrorMessage(ctx context.Context, externalOrderID string, msg string) error {
	return r.db.WithContext(ctx).
		Model(&shop.ExternalOrder{}).
		Where("external_order_id = ?", externalOrderID).
		Updates(map[string]interface{}{
			"error_message": msg,
			"updated_at":    time.Now(),
		}).Error
}

// Ensure GormExternalOrderRepository implements ExternalOrderRepository
var _ shop.ExternalOrderRepository = (*GormExternalOrderRepository)(nil)

// GormOrderLineItemRepository implements OrderLineItemRepository using GORM
type GormOrderLineItemRepository struct {
	db *gorm.DB
}

// NewGormOrderLineItemRepository creates a new GormOrderLineItemRepository
func NewGormOrderLineItemRepository(db *gorm.DB) *GormOrderLineItemRepository {
	return &GormOrderLineItemRepository{db: db}
}

// SaveBatch persists all outcome rows of one processing attempt
func (r *GormOrderLineItemRepository) SaveBatch(ctx context.Context, items []*shop.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

// FindByOrder returns all rows persisted for an order
func (r *GormOrderLineItemRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]shop.OrderLineItem, error) {
	var items []shop.OrderLineItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Ensure GormOrderLineItemRepository implements OrderLineItemRepository
var _ shop.OrderLineItemRepository = (*GormOrderLineItemRepository)(nil)
