package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/werkbank-erp/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that rejects requests whose body exceeds
// maxBytes. Streaming bodies without a Content-Length header are capped by a
// MaxBytesReader, so an oversized chunked webhook delivery fails mid-read
// instead of exhausting memory.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
