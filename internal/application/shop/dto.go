package shop

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessOrderResult is the outcome of processing one order event
type ProcessOrderResult struct {
	// Success indicates processing ran to completion (possibly with warnings)
	Success bool `json:"success"`
	// Skipped indicates the idempotency gate fired: the order was already
	// processed and no inventory effect took place
	Skipped bool `json:"skipped"`
	// OrderID is the internal ID of the order header
	OrderID uuid.UUID `json:"order_id"`
	// ExternalOrderID is the shop-assigned order ID
	ExternalOrderID string `json:"external_order_id"`
	// ProcessedItemCount is the number of mapped component rows persisted
	ProcessedItemCount int `json:"processed_item_count"`
	// UnmappedItemCount is the number of line items no strategy could map
	UnmappedItemCount int `json:"unmapped_item_count"`
	// InsufficientStockCount is the number of variants whose on-hand did not
	// cover the required aggregate (deduction still happened)
	InsufficientStockCount int `json:"insufficient_stock_count"`
	// Warnings are the non-fatal issues encountered, in processing order
	Warnings []string `json:"warnings,omitempty"`
}

// IdentityChangeResult is the outcome of recording a variant identity change
type IdentityChangeResult struct {
	// UpdatedMappings is the number of variant mapping rows rewritten
	UpdatedMappings int64 `json:"updated_mappings"`
	// UpdatedPropertyMappings is the number of property mapping rows rewritten
	UpdatedPropertyMappings int64 `json:"updated_property_mappings"`
	// Skipped indicates the mapping rewrite did not happen; the identity edge
	// was still recorded for historical completeness
	Skipped bool `json:"skipped"`
	// SkippedReason explains why the rewrite was skipped
	SkippedReason string `json:"skipped_reason,omitempty"`
}

// AuditFamily identifies which mapping family an audit row belongs to
type AuditFamily string

const (
	// AuditFamilyVariantMapping covers variant-based mapping rows
	AuditFamilyVariantMapping AuditFamily = "VARIANT_MAPPING"
	// AuditFamilyPropertyMapping covers property-based mapping rows
	AuditFamilyPropertyMapping AuditFamily = "PROPERTY_MAPPING"
	// AuditFamilyBOM covers bill-of-materials rows
	AuditFamilyBOM AuditFamily = "BOM"
)

// AuditStatus is the verdict of one audit row
type AuditStatus string

const (
	// AuditStatusOK indicates the colors are consistent
	AuditStatusOK AuditStatus = "OK"
	// AuditStatusMismatch indicates a color inconsistency
	AuditStatusMismatch AuditStatus = "MISMATCH"
	// AuditStatusWarning indicates the row could not be fully judged
	// (e.g. the mapping is not active)
	AuditStatusWarning AuditStatus = "WARNING"
)

// AuditRow is one finding of the mapping consistency audit
type AuditRow struct {
	// Family identifies the audited row family
	Family AuditFamily `json:"family"`
	// SubjectID is the audited mapping or BOM row ID
	SubjectID uuid.UUID `json:"subject_id"`
	// ExternalVariantID is the shop variant involved (mapping families)
	ExternalVariantID string `json:"external_variant_id,omitempty"`
	// InternalVariantID is the internal variant involved
	InternalVariantID uuid.UUID `json:"internal_variant_id"`
	// InternalSKU is the internal variant's SKU (for readability)
	InternalSKU string `json:"internal_sku,omitempty"`
	// Status is the verdict
	Status AuditStatus `json:"status"`
	// Note explains the verdict in human-readable form
	Note string `json:"note,omitempty"`
}

// StockDeduction is one aggregated deduction for a single internal variant
type StockDeduction struct {
	// VariantID is the internal variant to deduct
	VariantID uuid.UUID
	// Quantity is the positive aggregate quantity to deduct
	Quantity decimal.Decimal
}
