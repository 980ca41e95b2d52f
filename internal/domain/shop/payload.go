package shop

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate holds the validator instance used for payload validation
var validate = validator.New()

// OrderPayload is the typed boundary for an incoming order event. The shop
// delivers untyped JSON; everything is validated here before it enters the
// core, so that processing never sees a half-formed order.
type OrderPayload struct {
	// ExternalOrderID is the shop-assigned order ID (stable across redeliveries)
	ExternalOrderID string `json:"id" validate:"required"`
	// OrderNumber is the human-facing order number
	OrderNumber string `json:"order_number"`
	// Status is the order status on the shop platform
	Status string `json:"status"`
	// TotalAmount is the order total as reported by the shop
	TotalAmount decimal.Decimal `json:"total"`
	// Currency is the payment currency
	Currency string `json:"currency"`
	// Customer identifies the buyer
	Customer CustomerPayload `json:"customer"`
	// LineItems are the ordered positions
	LineItems []LineItemPayload `json:"line_items" validate:"required,min=1,dive"`
}

// CustomerPayload identifies the buyer on an incoming order
type CustomerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LineItemPayload is one ordered position on an incoming order
type LineItemPayload struct {
	// ExternalLineItemID is the shop-assigned line item ID
	ExternalLineItemID string `json:"id"`
	// ExternalProductID is the shop-assigned product ID
	ExternalProductID string `json:"product_id"`
	// ExternalVariantID is the shop-assigned variant ID (may be historical)
	ExternalVariantID string `json:"variant_id" validate:"required"`
	// SKU is the shop-side SKU string
	SKU string `json:"sku"`
	// Title is the product title as shown in the shop
	Title string `json:"title"`
	// Quantity is the ordered quantity
	Quantity decimal.Decimal `json:"quantity"`
	// UnitPrice is the unit price as reported by the shop
	UnitPrice decimal.Decimal `json:"price"`
	// Properties are free-text attribute pairs for customizable products
	Properties []PropertyPayload `json:"properties"`
}

// PropertyPayload is a free-text name/value attribute on a line item
type PropertyPayload struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseOrderPayload validates raw webhook JSON into the typed boundary struct.
// Rejects orders without an external ID, without line items, or with
// non-positive line quantities.
func ParseOrderPayload(raw []byte) (*OrderPayload, error) {
	var payload OrderPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}

	if payload.ExternalOrderID == "" {
		return nil, ErrPayloadMissingOrderID
	}
	if len(payload.LineItems) == 0 {
		return nil, ErrPayloadNoLineItems
	}
	for i := range payload.LineItems {
		if payload.LineItems[i].Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: line item %q", ErrPayloadInvalidQuantity, payload.LineItems[i].ExternalLineItemID)
		}
	}

	if err := validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}

	return &payload, nil
}

// Property returns the value of the named property, case-insensitively.
func (l *LineItemPayload) Property(name string) (string, bool) {
	for _, p := range l.Properties {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Describe returns a human-readable identification of the line item,
// used in unmapped-item reasons and error messages.
func (l *LineItemPayload) Describe() string {
	return fmt.Sprintf("sku=%s title=%q variant=%s", l.SKU, l.Title, l.ExternalVariantID)
}
