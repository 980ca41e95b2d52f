package shop

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/werkbank-erp/backend/internal/domain/catalog"
	"github.com/werkbank-erp/backend/internal/domain/shop"
	"github.com/werkbank-erp/backend/internal/infrastructure/logger"
)

// MappingAuditService produces a read-only consistency report across the
// three row families that tie external and internal variants together. The
// check compares color attributes, the one variation both sides carry in
// free text, and flags rows where they disagree. Nothing is mutated.
type MappingAuditService struct {
	variantMappings  shop.VariantMappingRepository
	propertyMappings shop.PropertyMappingRepository
	bomComponents    catalog.BOMComponentRepository
	variants         catalog.ProductVariantRepository
}

// NewMappingAuditService creates a new MappingAuditService
func NewMappingAuditService(
	variantMappings shop.VariantMappingRepository,
	propertyMappings shop.PropertyMappingRepository,
	bomComponents catalog.BOMComponentRepository,
	variants catalog.ProductVariantRepository,
) *MappingAuditService {
	return &MappingAuditService{
		variantMappings:  variantMappings,
		propertyMappings: propertyMappings,
		bomComponents:    bomComponents,
		variants:         variants,
	}
}

// AuditMappings audits all variant mappings, property mappings and
// bill-of-materials rows and returns one row per finding-relevant subject.
func (s *MappingAuditService) AuditMappings(ctx context.Context) ([]AuditRow, error) {
	variantMappings, err := s.variantMappings.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading variant mappings: %w", err)
	}
	propertyMappings, err := s.propertyMappings.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading property mappings: %w", err)
	}
	bomRows, err := s.bomComponents.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading bill-of-materials rows: %w", err)
	}

	variantsByID, err := s.loadReferencedVariants(ctx, variantMappings, propertyMappings, bomRows)
	if err != nil {
		return nil, err
	}

	rows := make([]AuditRow, 0, len(variantMappings)+len(propertyMappings)+len(bomRows))
	for i := range variantMappings {
		rows = append(rows, s.auditVariantMapping(&variantMappings[i], variantsByID))
	}
	for i := range propertyMappings {
		rows = append(rows, s.auditPropertyMapping(&propertyMappings[i], variantsByID))
	}
	for i := range bomRows {
		rows = append(rows, s.auditBOMComponent(&bomRows[i], variantsByID))
	}

	mismatches := 0
	for _, row := range rows {
		if row.Status == AuditStatusMismatch {
			mismatches++
		}
	}
	logger.FromContext(ctx).Info("mapping audit finished",
		zap.Int("rows", len(rows)),
		zap.Int("mismatches", mismatches))
	return rows, nil
}

// loadReferencedVariants fetches every internal variant any audited row
// refers to, in one batch.
func (s *MappingAuditService) loadReferencedVariants(
	ctx context.Context,
	variantMappings []shop.VariantMapping,
	propertyMappings []shop.PropertyMapping,
	bomRows []catalog.BOMComponent,
) (map[uuid.UUID]*catalog.ProductVariant, error) {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	add := func(id uuid.UUID) {
		if id != uuid.Nil && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range variantMappings {
		add(variantMappings[i].InternalVariantID)
	}
	for i := range propertyMappings {
		add(propertyMappings[i].InternalVariantID)
	}
	for i := range bomRows {
		add(bomRows[i].ProductVariantID)
		add(bomRows[i].ComponentVariantID)
	}

	variants, err := s.variants.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading referenced variants: %w", err)
	}
	byID := make(map[uuid.UUID]*catalog.ProductVariant, len(variants))
	for i := range variants {
		byID[variants[i].GetID()] = &variants[i]
	}
	return byID, nil
}

// auditVariantMapping checks that the internal variant's color appears in the
// external variant title. Rows that are not active cannot be judged reliably
// and report WARNING instead of MISMATCH.
func (s *MappingAuditService) auditVariantMapping(m *shop.VariantMapping, variants map[uuid.UUID]*catalog.ProductVariant) AuditRow {
	row := AuditRow{
		Family:            AuditFamilyVariantMapping,
		SubjectID:         m.GetID(),
		ExternalVariantID: m.ExternalVariantID,
		InternalVariantID: m.InternalVariantID,
		Status:            AuditStatusOK,
	}

	variant, ok := variants[m.InternalVariantID]
	if !ok {
		row.Status = AuditStatusWarning
		row.Note = "internal variant does not exist"
		return row
	}
	row.InternalSKU = variant.SKU

	color, ok := variant.Color()
	if !ok {
		row.Note = "internal variant carries no color attribute"
		return row
	}

	if !containsFold(m.ExternalVariantTitle, color) {
		if !m.IsActive() {
			row.Status = AuditStatusWarning
			row.Note = fmt.Sprintf("mapping is %s; external title %q does not mention color %q", m.State, m.ExternalVariantTitle, color)
		} else {
			row.Status = AuditStatusMismatch
			row.Note = fmt.Sprintf("internal color %q not found in external title %q", color, m.ExternalVariantTitle)
		}
	}
	return row
}

// auditPropertyMapping checks that the internal variant's color and the rule
// values are mutually consistent: some rule value must contain the color or
// the color must contain a rule value.
func (s *MappingAuditService) auditPropertyMapping(m *shop.PropertyMapping, variants map[uuid.UUID]*catalog.ProductVariant) AuditRow {
	row := AuditRow{
		Family:            AuditFamilyPropertyMapping,
		SubjectID:         m.GetID(),
		ExternalVariantID: m.ExternalVariantID,
		InternalVariantID: m.InternalVariantID,
		Status:            AuditStatusOK,
	}

	variant, ok := variants[m.InternalVariantID]
	if !ok {
		row.Status = AuditStatusWarning
		row.Note = "internal variant does not exist"
		return row
	}
	row.InternalSKU = variant.SKU

	color, ok := variant.Color()
	if !ok {
		row.Note = "internal variant carries no color attribute"
		return row
	}

	consistent := false
	for _, rule := range m.Rules {
		if containsFold(rule.Value, color) || containsFold(color, rule.Value) {
			consistent = true
			break
		}
	}
	if !consistent {
		if !m.IsActive() {
			row.Status = AuditStatusWarning
			row.Note = fmt.Sprintf("mapping is %s; no rule value relates to color %q", m.State, color)
		} else {
			row.Status = AuditStatusMismatch
			row.Note = fmt.Sprintf("no rule value relates to internal color %q", color)
		}
	}
	return row
}

// auditBOMComponent checks a bill-of-materials row for self-references and
// for assembled and component variants carrying different colors. A component
// without a color attribute is legitimate (e.g. packaging) and reports OK.
func (s *MappingAuditService) auditBOMComponent(b *catalog.BOMComponent, variants map[uuid.UUID]*catalog.ProductVariant) AuditRow {
	row := AuditRow{
		Family:            AuditFamilyBOM,
		SubjectID:         b.GetID(),
		InternalVariantID: b.ComponentVariantID,
		Status:            AuditStatusOK,
	}

	if b.IsSelfReference() {
		row.Status = AuditStatusMismatch
		row.Note = "bill-of-materials row references itself as component"
		return row
	}

	product, productOK := variants[b.ProductVariantID]
	component, componentOK := variants[b.ComponentVariantID]
	if !productOK || !componentOK {
		row.Status = AuditStatusWarning
		row.Note = "referenced variant does not exist"
		return row
	}
	row.InternalSKU = component.SKU

	productColor, productHas := product.Color()
	componentColor, componentHas := component.Color()
	switch {
	case !componentHas:
		row.Note = fmt.Sprintf("component %s carries no color attribute", component.SKU)
	case !productHas:
		row.Note = fmt.Sprintf("assembled variant %s carries no color attribute", product.SKU)
	case !strings.EqualFold(productColor, componentColor):
		row.Status = AuditStatusMismatch
		row.Note = fmt.Sprintf("assembled variant color %q differs from component color %q", productColor, componentColor)
	}
	return row
}

// containsFold reports whether s contains substr under case folding
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
