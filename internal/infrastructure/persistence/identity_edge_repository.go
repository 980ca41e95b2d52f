package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// GormVariantIdentityEdgeRepository implements VariantIdentityEdgeRepository using GORM
type GormVariantIdentityEdgeRepository struct {
	db *gorm.DB
}

// NewGormVariantIdentityEdgeRepository creates a new GormVariantIdentityEdgeRepository
func NewGormVariantIdentityEdgeRepository(db *gorm.DB) *GormVariantIdentityEdgeRepository {
	return &GormVariantIdentityEdgeRepository{db: db}
}

// FindByProductAndOldVariant finds the outgoing edge for one (product, old
// variant) pair. The composite unique index guarantees at most one row.
func (r *GormVariantIdentityEdgeRepository) FindByProductAndOldVariant(ctx context.Context, externalProductID, oldVariantID string) (*shop.VariantIdentityEdge, error) {
	var edge shop.VariantIdentityEdge
	if err := r.db.WithContext(ctx).
		Where("external_product_id = ? AND old_variant_id = ?", externalProductID, oldVariantID).
		First(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &edge, nil
}

// FindByProduct returns all identity edges recorded for one product
func (r *GormVariantIdentityEdgeRepository) FindByProduct(ctx context.Context, externalProductID string) ([]shop.VariantIdentityEdge, error) {
	var edges []shop.VariantIdentityEdge
	if err := r.db.WithContext(ctx).
		Where("external_product_id = ?", externalProductID).
		Order("created_at ASC").
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// Save inserts the edge, or refreshes the replacement target and note when
// the (product, old variant) pair was already recorded.
func (r *GormVariantIdentityEdgeRepository) Save(ctx context.Context, edge *shop.VariantIdentityEdge) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_product_id"}, {Name: "old_variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"new_variant_id", "note", "updated_at",
			}),
		}).
		Create(edge).Error
}

// Ensure GormVariantIdentityEdgeRepository implements VariantIdentityEdgeRepository
var _ shop.VariantIdentityEdgeRepository = (*GormVariantIdentityEdgeRepository)(nil)
