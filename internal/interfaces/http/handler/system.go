package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/werkbank-erp/backend/internal/infrastructure/persistence"
	"github.com/werkbank-erp/backend/internal/interfaces/http/dto"
)

// SystemHandler serves health and system info endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Healthz handles GET /healthz. It reports healthy only when the database
// answers a ping, so a load balancer stops routing to a node that lost its
// connection pool.
func (h *SystemHandler) Healthz(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable,
				dto.NewErrorResponse(dto.ErrCodeInternal, "database unreachable"))
			return
		}
	}

	h.Success(c, HealthResponse{
		Status:    "ok",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
