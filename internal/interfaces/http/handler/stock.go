package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/werkbank-erp/backend/internal/application/inventory"
	appshop "github.com/werkbank-erp/backend/internal/application/shop"
	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/interfaces/http/dto"
	"github.com/werkbank-erp/backend/internal/interfaces/http/middleware"
)

// StockHandler exposes stock levels, the movement log and manual corrections
type StockHandler struct {
	BaseHandler
	levels    inventory.StockLevelRepository
	movements inventory.StockMovementRepository
	ledger    *appinventory.LedgerService
	scope     appshop.TransactionScope
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	levels inventory.StockLevelRepository,
	movements inventory.StockMovementRepository,
	ledger *appinventory.LedgerService,
	scope appshop.TransactionScope,
) *StockHandler {
	return &StockHandler{
		levels:    levels,
		movements: movements,
		ledger:    ledger,
		scope:     scope,
	}
}

// StockLevelResponse is the body of GET /stock/:variantID
type StockLevelResponse struct {
	VariantID      string `json:"variant_id"`
	QuantityOnHand string `json:"quantity_on_hand"`
	// MovementTotal is the sum of all movement deltas. It equals
	// QuantityOnHand unless the ledger and the aggregate have drifted.
	MovementTotal string `json:"movement_total"`
	UpdatedAt     string `json:"updated_at"`
}

// StockMovementResponse is one row of GET /stock/:variantID/movements
type StockMovementResponse struct {
	ID         string `json:"id"`
	Quantity   string `json:"quantity"`
	Kind       string `json:"kind"`
	Reference  string `json:"reference,omitempty"`
	Note       string `json:"note,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// CorrectionRequest is the body of POST /stock/:variantID/corrections
type CorrectionRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"required"`
	Note  string          `json:"note" binding:"required"`
}

// parseVariantID parses the :variantID path parameter
func (h *StockHandler) parseVariantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("variantID"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID")
		return uuid.Nil, false
	}
	return id, true
}

// GetStockLevel handles GET /stock/:variantID
func (h *StockHandler) GetStockLevel(c *gin.Context) {
	variantID, ok := h.parseVariantID(c)
	if !ok {
		return
	}

	level, err := h.levels.FindByVariant(c.Request.Context(), variantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "No stock level recorded for this variant")
			return
		}
		h.HandleError(c, err)
		return
	}

	sum, err := h.movements.SumByVariant(c.Request.Context(), variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, StockLevelResponse{
		VariantID:      level.VariantID.String(),
		QuantityOnHand: level.QuantityOnHand.String(),
		MovementTotal:  sum.String(),
		UpdatedAt:      level.UpdatedAt.Format(time.RFC3339),
	})
}

// ListMovements handles GET /stock/:variantID/movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	variantID, ok := h.parseVariantID(c)
	if !ok {
		return
	}

	list := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&list); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if list.Page == 0 {
		list.Page = 1
	}
	if list.PageSize == 0 {
		list.PageSize = 20
	}

	movements, err := h.movements.FindByVariant(c.Request.Context(), variantID,
		shared.Filter{Page: list.Page, PageSize: list.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, StockMovementResponse{
			ID:         m.ID.String(),
			Quantity:   m.Quantity.String(),
			Kind:       string(m.Kind),
			Reference:  m.Reference,
			Note:       m.Note,
			OccurredAt: m.OccurredAt.Format(time.RFC3339),
		})
	}

	h.Success(c, rows)
}

// RecordCorrection handles POST /stock/:variantID/corrections. The movement
// row and the aggregate adjustment run in one transaction.
func (h *StockHandler) RecordCorrection(c *gin.Context) {
	variantID, ok := h.parseVariantID(c)
	if !ok {
		return
	}

	var req CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Delta.IsZero() {
		h.BadRequest(c, "Correction delta cannot be zero")
		return
	}

	err := h.scope.Execute(c.Request.Context(), func(repos appshop.TransactionalRepositories) error {
		return h.ledger.RecordCorrection(c.Request.Context(),
			repos.StockLevels(), repos.StockMovements(), variantID, req.Delta, req.Note)
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{
		"variant_id": variantID.String(),
		"delta":      req.Delta.String(),
	})
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.GET("/:variantID", h.GetStockLevel)
		stock.GET("/:variantID/movements", h.ListMovements)
		stock.POST("/:variantID/corrections", h.RecordCorrection)
	}
}
