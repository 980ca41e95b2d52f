package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// GormVariantMappingRepository implements VariantMappingRepository using GORM
type GormVariantMappingRepository struct {
	db *gorm.DB
}

// NewGormVariantMappingRepository creates a new GormVariantMappingRepository
func NewGormVariantMappingRepository(db *gorm.DB) *GormVariantMappingRepository {
	return &GormVariantMappingRepository{db: db}
}

// FindActiveByExternalVariant returns active rows for one external variant
func (r *GormVariantMappingRepository) FindActiveByExternalVariant(ctx context.Context, externalVariantID string) ([]shop.VariantMapping, error) {
	var mappings []shop.VariantMapping
	if err := r.db.WithContext(ctx).
		Where("external_variant_id = ? AND state = ?", externalVariantID, shop.MappingStateActive).
		Order("created_at ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// FindAll returns all variant mappings
func (r *GormVariantMappingRepository) FindAll(ctx context.Context) ([]shop.VariantMapping, error) {
	var mappings []shop.VariantMapping
	if err := r.db.WithContext(ctx).
		Order("external_variant_id ASC, created_at ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// CountActiveByExternalVariant counts active rows for one external variant
func (r *GormVariantMappingRepository) CountActiveByExternalVariant(ctx context.Context, externalVariantID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&shop.VariantMapping{}).
		Where("external_variant_id = ? AND state = ?", externalVariantID, shop.MappingStateActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReassignExternalVariant rewrites active rows from one external variant ID
// to another. Returns the number of rows updated.
func (r *GormVariantMappingRepository) ReassignExternalVariant(ctx context.Context, oldID, newID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&shop.VariantMapping{}).
		Where("external_variant_id = ? AND state = ?", oldID, shop.MappingStateActive).
		Updates(map[string]interface{}{
			"external_variant_id": newID,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Ensure GormVariantMappingRepository implements VariantMappingRepository
var _ shop.VariantMappingRepository = (*GormVariantMappingRepository)(nil)

// GormPropertyMappingRepository implements PropertyMappingRepository using GORM
type GormPropertyMappingRepository struct {
	db *gorm.DB
}

// NewGormPropertyMappingRepository creates a new GormPropertyMappingRepository
func NewGormPropertyMappingRepository(db *gorm.DB) *GormPropertyMappingRepository {
	return &GormPropertyMappingRepository{db: db}
}

// FindActiveByExternalVariant returns active rows tied to one external variant
func (r *GormPropertyMappingRepository) FindActiveByExternalVariant(ctx context.Context, externalVariantID string) ([]shop.PropertyMapping, error) {
	var mappings []shop.PropertyMapping
	if err := r.db.WithContext(ctx).
		Where("external_variant_id = ? AND state = ?", externalVariantID, shop.MappingStateActive).
		Order("created_at ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// FindAll returns all property mappings
func (r *GormPropertyMappingRepository) FindAll(ctx context.Context) ([]shop.PropertyMapping, error) {
	var mappings []shop.PropertyMapping
	if err := r.db.WithContext(ctx).
		Order("external_variant_id ASC, created_at ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// CountActiveByExternalVariant counts active rows for one external variant
func (r *GormPropertyMappingRepository) CountActiveByExternalVariant(ctx context.Context, externalVariantID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&shop.PropertyMapping{}).
		Where("external_variant_id = ? AND state = ?", externalVariantID, shop.MappingStateActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReassignExternalVariant rewrites active rows from one external variant ID
// to another. Returns the number of rows updated.
func (r *GormPropertyMappingRepository) ReassignExternalVariant(ctx context.Context, oldID, newID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&shop.PropertyMapping{}).
		Where("external_variant_id = ? AND state = ?", oldID, shop.MappingStateActive).
		Updates(map[string]interface{}{
			"external_variant_id": newID,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Ensure GormPropertyMappingRepository implements PropertyMappingRepository
var _ shop.PropertyMappingRepository = (*GormPropertyMappingRepository)(nil)
