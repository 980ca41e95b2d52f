package handler

import (
	"github.com/gin-gonic/gin"

	appshop "github.com/werkbank-erp/backend/internal/application/shop"
)

// MappingAuditHandler exposes the mapping consistency audit
type MappingAuditHandler struct {
	BaseHandler
	audit *appshop.MappingAuditService
}

// NewMappingAuditHandler creates a new MappingAuditHandler
func NewMappingAuditHandler(audit *appshop.MappingAuditService) *MappingAuditHandler {
	return &MappingAuditHandler{audit: audit}
}

// AuditReportResponse is the body of GET /mapping-audit
type AuditReportResponse struct {
	Rows       []appshop.AuditRow `json:"rows"`
	Total      int                `json:"total"`
	Mismatches int                `json:"mismatches"`
	Warnings   int                `json:"warnings"`
}

// GetAuditReport handles GET /mapping-audit. The audit is read-only and
// always reports on the current state of all mapping families.
func (h *MappingAuditHandler) GetAuditReport(c *gin.Context) {
	rows, err := h.audit.AuditMappings(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	report := AuditReportResponse{Rows: rows, Total: len(rows)}
	for _, row := range rows {
		switch row.Status {
		case appshop.AuditStatusMismatch:
			report.Mismatches++
		case appshop.AuditStatusWarning:
			report.Warnings++
		}
	}

	h.Success(c, report)
}

// RegisterRoutes registers mapping audit routes
func (h *MappingAuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/mapping-audit", h.GetAuditReport)
}
