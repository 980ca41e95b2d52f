package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/werkbank-erp/backend/internal/domain/catalog"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// GormProductVariantRepository implements ProductVariantRepository using GORM
type GormProductVariantRepository struct {
	db *gorm.DB
}

// NewGormProductVariantRepository creates a new GormProductVariantRepository
func NewGormProductVariantRepository(db *gorm.DB) *GormProductVariantRepository {
	return &GormProductVariantRepository{db: db}
}

// FindByID finds a variant by its internal ID
func (r *GormProductVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var variant catalog.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// FindByIDs returns all variants with the given internal IDs
func (r *GormProductVariantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.ProductVariant, error) {
	if len(ids) == 0 {
		return []catalog.ProductVariant{}, nil
	}
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// FindBySKU finds a variant by its SKU code
func (r *GormProductVariantRepository) FindBySKU(ctx context.Context, sku string) (*catalog.ProductVariant, error) {
	var variant catalog.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// Ensure GormProductVariantRepository implements ProductVariantRepository
var _ catalog.ProductVariantRepository = (*GormProductVariantRepository)(nil)

// GormBOMComponentRepository implements BOMComponentRepository using GORM
type GormBOMComponentRepository struct {
	db *gorm.DB
}

// NewGormBOMComponentRepository creates a new GormBOMComponentRepository
func NewGormBOMComponentRepository(db *gorm.DB) *GormBOMComponentRepository {
	return &GormBOMComponentRepository{db: db}
}

// FindAll returns all bill-of-materials rows
func (r *GormBOMComponentRepository) FindAll(ctx context.Context) ([]catalog.BOMComponent, error) {
	var rows []catalog.BOMComponent
	if err := r.db.WithContext(ctx).
		Order("product_variant_id ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByProductVariant returns the components of one assembled variant
func (r *GormBOMComponentRepository) FindByProductVariant(ctx context.Context, productVariantID uuid.UUID) ([]catalog.BOMComponent, error) {
	var rows []catalog.BOMComponent
	if err := r.db.WithContext(ctx).
		Where("product_variant_id = ?", productVariantID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Ensure GormBOMComponentRepository implements BOMComponentRepository
var _ catalog.BOMComponentRepository = (*GormBOMComponentRepository)(nil)
