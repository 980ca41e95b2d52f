package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	appshop "github.com/werkbank-erp/backend/internal/application/shop"
	"github.com/werkbank-erp/backend/internal/domain/shop"
	"github.com/werkbank-erp/backend/internal/interfaces/http/dto"
	"github.com/werkbank-erp/backend/internal/interfaces/http/middleware"
)

// VariantIdentityHandler records external variant identity changes
type VariantIdentityHandler struct {
	BaseHandler
	resolver *appshop.VariantResolverService
}

// NewVariantIdentityHandler creates a new VariantIdentityHandler
func NewVariantIdentityHandler(resolver *appshop.VariantResolverService) *VariantIdentityHandler {
	return &VariantIdentityHandler{resolver: resolver}
}

// RecordIdentityChangeRequest is the body of POST /variant-identity
type RecordIdentityChangeRequest struct {
	ExternalProductID string `json:"external_product_id" binding:"required"`
	OldVariantID      string `json:"old_variant_id" binding:"required"`
	NewVariantID      string `json:"new_variant_id" binding:"required,nefield=OldVariantID"`
	Note              string `json:"note"`
}

// RecordIdentityChange handles POST /variant-identity
func (h *VariantIdentityHandler) RecordIdentityChange(c *gin.Context) {
	var req RecordIdentityChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.resolver.RecordIdentityChange(c.Request.Context(),
		req.ExternalProductID, req.OldVariantID, req.NewVariantID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrIdentityInvalidProductID),
			errors.Is(err, shop.ErrIdentityInvalidVariantID),
			errors.Is(err, shop.ErrIdentitySameVariantID):
			h.Error(c, 400, dto.ErrCodeInvalidInput, err.Error())
		case errors.Is(err, shop.ErrResolutionCycle):
			h.UnprocessableEntity(c, dto.ErrCodeBusinessRule, err.Error())
		default:
			h.HandleError(c, err)
		}
		return
	}

	h.Created(c, result)
}

// ResolveVariantRequest is the query of GET /variant-identity/resolve
type ResolveVariantRequest struct {
	ExternalProductID string `form:"external_product_id" binding:"required"`
	VariantID         string `form:"variant_id" binding:"required"`
}

// ResolveVariantResponse is the body of GET /variant-identity/resolve
type ResolveVariantResponse struct {
	ExternalProductID string `json:"external_product_id"`
	VariantID         string `json:"variant_id"`
	ResolvedVariantID string `json:"resolved_variant_id"`
}

// ResolveVariant handles GET /variant-identity/resolve. It walks the recorded
// identity chain and returns the current ID for a possibly historical one.
func (h *VariantIdentityHandler) ResolveVariant(c *gin.Context) {
	var req ResolveVariantRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resolved, err := h.resolver.Resolve(c.Request.Context(), req.ExternalProductID, req.VariantID)
	if err != nil {
		if errors.Is(err, shop.ErrResolutionCycle) {
			h.UnprocessableEntity(c, dto.ErrCodeBusinessRule, err.Error())
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, ResolveVariantResponse{
		ExternalProductID: req.ExternalProductID,
		VariantID:         req.VariantID,
		ResolvedVariantID: resolved,
	})
}

// RegisterRoutes registers variant identity routes
func (h *VariantIdentityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/variant-identity", h.RecordIdentityChange)
	rg.GET("/variant-identity/resolve", h.ResolveVariant)
}
