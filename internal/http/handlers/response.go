// Response helpers shared by every endpoint.
//
// Failures use one envelope with a stable code from errors.go:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_document",
//	  "message": "config: account: expected object"
//	}
//
// Bot control and probe outcomes are not failures in this sense; they are
// domain.ActionResult bodies sent with ok().
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/lotto-console/internal/http/middleware"
)

const jsonContentType = "application/json; charset=utf-8"

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"invalid_document"`
	// Safe to show in the console
	Message string `json:"message" example:"config: account: expected object"`
}

// fail aborts c with an ErrorResponse. Server errors are logged with the
// request-scoped logger; client errors are left to the access log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("route", middleware.RouteOf(c)).
			Msg(msg)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// okRaw sends an already encoded JSON body.
func okRaw(c *gin.Context, status int, raw []byte) {
	c.Data(status, jsonContentType, raw)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
