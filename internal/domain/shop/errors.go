package shop

import "errors"

var (
	// Resolution errors
	ErrResolutionCycle = errors.New("shop: variant identity chain contains a cycle")

	// Identity change errors
	ErrIdentityInvalidProductID = errors.New("shop: invalid external product ID")
	ErrIdentityInvalidVariantID = errors.New("shop: invalid external variant ID")
	ErrIdentitySameVariantID    = errors.New("shop: old and new variant IDs are identical")
	ErrMappingConflict          = errors.New("shop: target variant ID already has active mappings")

	// Mapping errors
	ErrMappingInvalidVariantID  = errors.New("shop: invalid external variant ID for mapping")
	ErrMappingInvalidInternalID = errors.New("shop: invalid internal variant ID for mapping")
	ErrMappingInvalidMultiplier = errors.New("shop: quantity multiplier must be positive")
	ErrMappingEmptyRuleSet      = errors.New("shop: property mapping requires at least one rule")

	// Payload errors
	ErrPayloadInvalid         = errors.New("shop: order payload failed validation")
	ErrPayloadMissingOrderID  = errors.New("shop: order payload is missing the external order ID")
	ErrPayloadNoLineItems     = errors.New("shop: order payload contains no line items")
	ErrPayloadInvalidQuantity = errors.New("shop: line item quantity must be positive")

	// Order errors
	ErrOrderAlreadyProcessed = errors.New("shop: order has already been processed")

	// Webhook errors
	ErrWebhookEventNotFound = errors.New("shop: webhook event not found")
)
