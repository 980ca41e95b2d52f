package catalog

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// Variation is one attribute selection on a product variant (e.g. Farbe=Rot)
type Variation struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VariationSet holds all attribute selections of a variant, stored as JSONB
type VariationSet []Variation

// Value implements driver.Valuer for JSONB storage
func (s VariationSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (s *VariationSet) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("catalog: cannot scan %T into VariationSet", value)
	}
}

// Get returns the value of the named variation, case-insensitively
func (s VariationSet) Get(name string) (string, bool) {
	for _, v := range s {
		if strings.EqualFold(v.Name, name) {
			return v.Value, true
		}
	}
	return "", false
}

// ProductVariant is a SKU-level inventory entity, optionally carrying
// attribute selections such as a color.
type ProductVariant struct {
	shared.BaseEntity
	// SKU is the internal stock-keeping unit code (unique)
	SKU string `gorm:"not null;uniqueIndex"`
	// Name is the display name of the variant
	Name string `gorm:"not null"`
	// Variations are the attribute selections of this variant
	Variations VariationSet `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// Color returns the variant's color attribute, read from the variation named
// "Farbe" or "Color" (case-insensitive). Returns false when the variant
// carries no color.
func (v *ProductVariant) Color() (string, bool) {
	if c, ok := v.Variations.Get("Farbe"); ok && c != "" {
		return c, true
	}
	if c, ok := v.Variations.Get("Color"); ok && c != "" {
		return c, true
	}
	return "", false
}

// ProductVariantRepository defines read access to product variants.
// Variant administration is handled by the catalog CRUD surface, not here.
type ProductVariantRepository interface {
	// FindByID finds a variant by its internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)

	// FindByIDs returns all variants with the given internal IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductVariant, error)

	// FindBySKU finds a variant by its SKU code
	FindBySKU(ctx context.Context, sku string) (*ProductVariant, error)
}
