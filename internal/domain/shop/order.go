package shop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// ExternalOrder Entity
// ---------------------------------------------------------------------------

// ExternalOrder represents a sales order delivered by the shop platform.
// It is created on first sighting of an external order ID (upsert) and never
// deleted. ProcessedAt is the idempotency gate: it is set at most once, and
// only after at least one component was mapped and deducted.
type ExternalOrder struct {
	shared.BaseEntity
	// ExternalOrderID is the shop-assigned order ID (unique)
	ExternalOrderID string `gorm:"not null;uniqueIndex"`
	// OrderNumber is the human-facing order number
	OrderNumber string
	// PlatformStatus is the order status on the shop at delivery time
	PlatformStatus string
	// TotalAmount is the order total as reported by the shop
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// Currency is the payment currency
	Currency string
	// CustomerName identifies the buyer
	CustomerName string
	// CustomerEmail identifies the buyer
	CustomerEmail string
	// RawPayload is the original webhook payload snapshot (JSON)
	RawPayload string `gorm:"type:jsonb"`
	// ProcessedAt is set exactly once, when inventory was deducted
	ProcessedAt *time.Time
	// ErrorMessage collects non-fatal issues (unmapped items, stock warnings)
	ErrorMessage string

	// Associations - loaded lazily
	LineItems []OrderLineItem `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (ExternalOrder) TableName() string {
	return "external_orders"
}

// NewExternalOrderFromPayload builds the order header from a validated payload
func NewExternalOrderFromPayload(payload *OrderPayload, raw string) *ExternalOrder {
	return &ExternalOrder{
		BaseEntity:      shared.NewBaseEntity(),
		ExternalOrderID: payload.ExternalOrderID,
		OrderNumber:     payload.OrderNumber,
		PlatformStatus:  payload.Status,
		TotalAmount:     payload.TotalAmount,
		Currency:        payload.Currency,
		CustomerName:    payload.Customer.Name,
		CustomerEmail:   payload.Customer.Email,
		RawPayload:      raw,
		LineItems:       make([]OrderLineItem, 0),
	}
}

// IsProcessed returns true if the idempotency gate has fired
func (o *ExternalOrder) IsProcessed() bool {
	return o.ProcessedAt != nil
}

// MarkProcessed sets ProcessedAt. It may be set at most once.
func (o *ExternalOrder) MarkProcessed(at time.Time) error {
	if o.ProcessedAt != nil {
		return ErrOrderAlreadyProcessed
	}
	o.ProcessedAt = &at
	o.Touch()
	return nil
}

// AppendError appends a non-fatal issue to the order's error message
func (o *ExternalOrder) AppendError(msg string) {
	if msg == "" {
		return
	}
	if o.ErrorMessage == "" {
		o.ErrorMessage = msg
	} else {
		o.ErrorMessage = o.ErrorMessage + "; " + msg
	}
	o.Touch()
}

// ---------------------------------------------------------------------------
// OrderLineItem Entity
// ---------------------------------------------------------------------------

// MappingStatus is the per-line-item mapping outcome
type MappingStatus string

const (
	// MappingStatusMapped indicates the line item resolved to an internal variant
	MappingStatusMapped MappingStatus = "MAPPED"
	// MappingStatusUnmapped indicates no mapping strategy yielded a component
	MappingStatusUnmapped MappingStatus = "UNMAPPED"
)

// IsValid returns true if the mapping status is valid
func (s MappingStatus) IsValid() bool {
	switch s {
	case MappingStatusMapped, MappingStatusUnmapped:
		return true
	default:
		return false
	}
}

// String returns the string representation of MappingStatus
func (s MappingStatus) String() string {
	return string(s)
}

// OrderLineItem is one persisted mapping outcome for an ordered position.
// A bundle line item fans out into several rows, one per resolved component;
// an unmapped line item is stored as a single UNMAPPED row with a reason.
type OrderLineItem struct {
	shared.BaseEntity
	// OrderID references the owning ExternalOrder
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// ExternalLineItemID is the shop-assigned line item ID
	ExternalLineItemID string
	// ExternalProductID is the shop-assigned product ID
	ExternalProductID string
	// ExternalVariantID is the variant ID as delivered (before resolution)
	ExternalVariantID string
	// ResolvedVariantID is the variant ID after identity-chain resolution
	ResolvedVariantID string
	// SKU is the shop-side SKU string
	SKU string
	// Title is the product title as shown in the shop
	Title string
	// Quantity is the deduction quantity (multiplier x ordered quantity)
	// for mapped rows, or the ordered quantity for unmapped rows
	Quantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// InternalVariantID is the matched stock-keeping variant (mapped rows only)
	InternalVariantID *uuid.UUID `gorm:"type:uuid;index"`
	// MappingStatus records the mapping outcome
	MappingStatus MappingStatus `gorm:"not null"`
	// MappingNote holds the unmapped reason, if any
	MappingNote string
}

// TableName returns the table name for GORM
func (OrderLineItem) TableName() string {
	return "external_order_line_items"
}

// NewMappedLineItem builds one persisted row for a resolved component match
func NewMappedLineItem(orderID uuid.UUID, li LineItemPayload, resolvedVariantID string, match ComponentMatch) *OrderLineItem {
	internalID := match.InternalVariantID
	return &OrderLineItem{
		BaseEntity:         shared.NewBaseEntity(),
		OrderID:            orderID,
		ExternalLineItemID: li.ExternalLineItemID,
		ExternalProductID:  li.ExternalProductID,
		ExternalVariantID:  li.ExternalVariantID,
		ResolvedVariantID:  resolvedVariantID,
		SKU:                li.SKU,
		Title:              li.Title,
		Quantity:           li.Quantity.Mul(match.Multiplier),
		InternalVariantID:  &internalID,
		MappingStatus:      MappingStatusMapped,
	}
}

// NewUnmappedLineItem builds the single row persisted for an unmapped line item
func NewUnmappedLineItem(orderID uuid.UUID, li LineItemPayload, resolvedVariantID, reason string) *OrderLineItem {
	return &OrderLineItem{
		BaseEntity:         shared.NewBaseEntity(),
		OrderID:            orderID,
		ExternalLineItemID: li.ExternalLineItemID,
		ExternalProductID:  li.ExternalProductID,
		ExternalVariantID:  li.ExternalVariantID,
		ResolvedVariantID:  resolvedVariantID,
		SKU:                li.SKU,
		Title:              li.Title,
		Quantity:           li.Quantity,
		MappingStatus:      MappingStatusUnmapped,
		MappingNote:        reason,
	}
}

// UnmappedSummary joins the notes of unmapped rows into one order-level message
func UnmappedSummary(items []*OrderLineItem) string {
	notes := make([]string, 0, len(items))
	for _, item := range items {
		if item.MappingStatus == MappingStatusUnmapped && item.MappingNote != "" {
			notes = append(notes, item.MappingNote)
		}
	}
	return strings.Join(notes, "; ")
}

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// ExternalOrderRepository defines persistence for order headers.
// Upsert and MarkProcessed are the two operations the idempotency invariant
// depends on; both must be backed by the unique external_order_id constraint.
type ExternalOrderRepository interface {
	// FindByExternalID finds an order by its shop-assigned ID
	FindByExternalID(ctx context.Context, externalOrderID string) (*ExternalOrder, error)

	// Upsert inserts the order header, or updates status/payload fields on
	// conflict of external_order_id. ProcessedAt is never overwritten.
	Upsert(ctx context.Context, order *ExternalOrder) error

	// Save persists changes to an existing order header
	Save(ctx context.Context, order *ExternalOrder) error

	// MarkProcessed performs the compare-and-set unprocessed -> processed
	// transition. Returns false if ProcessedAt was already set.
	MarkProcessed(ctx context.Context, externalOrderID string, at time.Time) (bool, error)

	// UpdateErrorMessage replaces the order's error message
	UpdateErrorMessage(ctx context.Context, externalOrderID string, msg string) error
}

// OrderLineItemRepository defines persistence for per-component outcome rows
type OrderLineItemRepository interface {
	// SaveBatch persists all outcome rows of one processing attempt
	SaveBatch(ctx context.Context, items []*OrderLineItem) error

	// FindByOrder returns all rows persisted for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderLineItem, error)
}
