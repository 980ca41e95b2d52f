package shop

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Mapping Status
// ---------------------------------------------------------------------------

// MappingState is the lifecycle state of a variant or property mapping
type MappingState string

const (
	// MappingStateActive indicates the mapping participates in matching
	MappingStateActive MappingState = "ACTIVE"
	// MappingStateDisabled indicates the mapping is administratively disabled
	MappingStateDisabled MappingState = "DISABLED"
	// MappingStateError indicates the mapping was flagged as broken
	MappingStateError MappingState = "ERROR"
)

// IsValid returns true if the state is valid
func (s MappingState) IsValid() bool {
	switch s {
	case MappingStateActive, MappingStateDisabled, MappingStateError:
		return true
	default:
		return false
	}
}

// String returns the string representation of MappingState
func (s MappingState) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// VariantMapping Entity
// ---------------------------------------------------------------------------

// VariantMapping maps one external variant to one internal stock-keeping
// variant with a per-unit multiplier. Several rows for the same external
// variant form a fixed multi-component bundle.
type VariantMapping struct {
	shared.BaseEntity
	// ExternalVariantID is the shop-assigned variant ID
	ExternalVariantID string `gorm:"not null;index"`
	// ExternalVariantTitle is the variant title on the shop (for reference and audit)
	ExternalVariantTitle string
	// InternalVariantID is the stock-keeping variant to deduct
	InternalVariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Multiplier is the per-unit deduction quantity
	Multiplier decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	// State is the mapping lifecycle state
	State MappingState `gorm:"not null;default:ACTIVE"`
}

// TableName returns the table name for GORM
func (VariantMapping) TableName() string {
	return "variant_mappings"
}

// NewVariantMapping creates a new active variant mapping
func NewVariantMapping(externalVariantID string, internalVariantID uuid.UUID, multiplier decimal.Decimal) (*VariantMapping, error) {
	if externalVariantID == "" {
		return nil, ErrMappingInvalidVariantID
	}
	if internalVariantID == uuid.Nil {
		return nil, ErrMappingInvalidInternalID
	}
	if multiplier.LessThanOrEqual(decimal.Zero) {
		return nil, ErrMappingInvalidMultiplier
	}
	return &VariantMapping{
		BaseEntity:        shared.NewBaseEntity(),
		ExternalVariantID: externalVariantID,
		InternalVariantID: internalVariantID,
		Multiplier:        multiplier,
		State:             MappingStateActive,
	}, nil
}

// IsActive returns true if the mapping participates in matching
func (m *VariantMapping) IsActive() bool {
	return m.State == MappingStateActive
}

// ---------------------------------------------------------------------------
// PropertyMapping Entity
// ---------------------------------------------------------------------------

// PropertyRule is one required name/value pair on a property mapping
type PropertyRule struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PropertyRuleSet is the full rule set of a property mapping, stored as JSONB.
// A line item satisfies the set only if every rule has a case-insensitive
// equal counterpart among the item's properties.
type PropertyRuleSet []PropertyRule

// Value implements driver.Valuer for JSONB storage
func (s PropertyRuleSet) Value() (driver.Value, error) {
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
func (s *PropertyRuleSet) Scan(value interface{}) error {
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
		return fmt.Errorf("shop: cannot scan %T into PropertyRuleSet", value)
	}
}

// PropertyMapping maps an external variant to an internal variant conditional
// on line-item properties. The shop encodes made-to-order choices as free-text
// property pairs instead of distinct variants; the rule set picks the
// component for one specific choice combination.
type PropertyMapping struct {
	shared.BaseEntity
	// ExternalVariantID is the shop-assigned variant ID this mapping is tied to
	ExternalVariantID string `gorm:"not null;index"`
	// Rules are the required property name/value pairs (logical AND)
	Rules PropertyRuleSet `gorm:"type:jsonb;not null"`
	// InternalVariantID is the stock-keeping variant to deduct
	InternalVariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Multiplier is the per-unit deduction quantity
	Multiplier decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	// State is the mapping lifecycle state
	State MappingState `gorm:"not null;default:ACTIVE"`
}

// TableName returns the table name for GORM
func (PropertyMapping) TableName() string {
	return "property_mappings"
}

// NewPropertyMapping creates a new active property mapping
func NewPropertyMapping(externalVariantID string, rules PropertyRuleSet, internalVariantID uuid.UUID, multiplier decimal.Decimal) (*PropertyMapping, error) {
	if externalVariantID == "" {
		return nil, ErrMappingInvalidVariantID
	}
	if len(rules) == 0 {
		return nil, ErrMappingEmptyRuleSet
	}
	if internalVariantID == uuid.Nil {
		return nil, ErrMappingInvalidInternalID
	}
	if multiplier.LessThanOrEqual(decimal.Zero) {
		return nil, ErrMappingInvalidMultiplier
	}
	return &PropertyMapping{
		BaseEntity:        shared.NewBaseEntity(),
		ExternalVariantID: externalVariantID,
		Rules:             rules,
		InternalVariantID: internalVariantID,
		Multiplier:        multiplier,
		State:             MappingStateActive,
	}, nil
}

// IsActive returns true if the mapping participates in matching
func (m *PropertyMapping) IsActive() bool {
	return m.State == MappingStateActive
}

// MatchesProperties returns true if every rule in the set has a
// case-insensitive equal counterpart among the given properties.
// The line item may carry additional properties not referenced by any rule.
func (m *PropertyMapping) MatchesProperties(properties []PropertyPayload) bool {
	if len(m.Rules) == 0 {
		return false
	}
	for _, rule := range m.Rules {
		satisfied := false
		for _, p := range properties {
			if strings.EqualFold(p.Name, rule.Name) && strings.EqualFold(p.Value, rule.Value) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// ComponentMatch
// ---------------------------------------------------------------------------

// ComponentMatch is one internal component a line item resolves to
type ComponentMatch struct {
	// InternalVariantID is the stock-keeping variant to deduct
	InternalVariantID uuid.UUID
	// Multiplier is the per-unit deduction quantity
	Multiplier decimal.Decimal
}

// MatchVariantMappings expands active variant mappings into component matches.
// Every active row contributes one match (multi-component bundles).
func MatchVariantMappings(mappings []VariantMapping) []ComponentMatch {
	matches := make([]ComponentMatch, 0, len(mappings))
	for _, m := range mappings {
		if !m.IsActive() {
			continue
		}
		matches = append(matches, ComponentMatch{
			InternalVariantID: m.InternalVariantID,
			Multiplier:        m.Multiplier,
		})
	}
	return matches
}

// MatchPropertyMappings returns component matches for all active property
// mappings whose full rule set is satisfied by the given properties.
func MatchPropertyMappings(mappings []PropertyMapping, properties []PropertyPayload) []ComponentMatch {
	matches := make([]ComponentMatch, 0)
	for _, m := range mappings {
		if !m.IsActive() {
			continue
		}
		if m.MatchesProperties(properties) {
			matches = append(matches, ComponentMatch{
				InternalVariantID: m.InternalVariantID,
				Multiplier:        m.Multiplier,
			})
		}
	}
	return matches
}

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// VariantMappingRepository defines persistence for variant mappings.
// This core only reads active rows; administration happens elsewhere.
type VariantMappingRepository interface {
	// FindActiveByExternalVariant returns active rows for one external variant
	FindActiveByExternalVariant(ctx context.Context, externalVariantID string) ([]VariantMapping, error)

	// FindAll returns all variant mappings (for the consistency audit)
	FindAll(ctx context.Context) ([]VariantMapping, error)

	// CountActiveByExternalVariant counts active rows for one external variant
	CountActiveByExternalVariant(ctx context.Context, externalVariantID string) (int64, error)

	// ReassignExternalVariant rewrites active rows from one external variant
	// ID to another. Returns the number of rows updated.
	ReassignExternalVariant(ctx context.Context, oldID, newID string) (int64, error)
}

// PropertyMappingRepository defines persistence for property mappings
type PropertyMappingRepository interface {
	// FindActiveByExternalVariant returns active rows tied to one external variant
	FindActiveByExternalVariant(ctx context.Context, externalVariantID string) ([]PropertyMapping, error)

	// FindAll returns all property mappings (for the consistency audit)
	FindAll(ctx context.Context) ([]PropertyMapping, error)

	// CountActiveByExternalVariant counts active rows for one external variant
	CountActiveByExternalVariant(ctx context.Context, externalVariantID string) (int64, error)

	// ReassignExternalVariant rewrites active rows from one external variant
	// ID to another. Returns the number of rows updated.
	ReassignExternalVariant(ctx context.Context, oldID, newID string) (int64, error)
}
