package shop

import (
	"context"
	"fmt"

	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// matchLineItem computes the internal components to deduct for one resolved
// variant ID. Strategy precedence, first non-empty wins, never combined:
//
//  1. Variant-based: every active VariantMapping row for the resolved ID
//     yields one component (multi-component bundles).
//  2. Property-based: tried only if (1) is empty and the line item carries at
//     least one property. Every active PropertyMapping whose full rule set
//     matches contributes.
//
// An empty result means the line item is unmapped.
func matchLineItem(
	ctx context.Context,
	variantMappings shop.VariantMappingRepository,
	propertyMappings shop.PropertyMappingRepository,
	resolvedVariantID string,
	properties []shop.PropertyPayload,
) ([]shop.ComponentMatch, error) {
	rows, err := variantMappings.FindActiveByExternalVariant(ctx, resolvedVariantID)
	if err != nil {
		return nil, fmt.Errorf("loading variant mappings for %s: %w", resolvedVariantID, err)
	}
	if matches := shop.MatchVariantMappings(rows); len(matches) > 0 {
		return matches, nil
	}

	if len(properties) == 0 {
		return nil, nil
	}

	propRows, err := propertyMappings.FindActiveByExternalVariant(ctx, resolvedVariantID)
	if err != nil {
		return nil, fmt.Errorf("loading property mappings for %s: %w", resolvedVariantID, err)
	}
	return shop.MatchPropertyMappings(propRows, properties), nil
}

// MappingMatcher matches order line items to internal components using the
// two mapping strategies.
type MappingMatcher struct {
	variantMappings  shop.VariantMappingRepository
	propertyMappings shop.PropertyMappingRepository
}

// NewMappingMatcher creates a new MappingMatcher
func NewMappingMatcher(
	variantMappings shop.VariantMappingRepository,
	propertyMappings shop.PropertyMappingRepository,
) *MappingMatcher {
	return &MappingMatcher{
		variantMappings:  variantMappings,
		propertyMappings: propertyMappings,
	}
}

// MatchLineItem returns the components to deduct for a resolved variant ID
// and optional line-item properties. An empty result means unmapped.
func (m *MappingMatcher) MatchLineItem(ctx context.Context, resolvedVariantID string, properties []shop.PropertyPayload) ([]shop.ComponentMatch, error) {
	return matchLineItem(ctx, m.variantMappings, m.propertyMappings, resolvedVariantID, properties)
}
