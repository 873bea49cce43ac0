package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// PanicResponder writes the response for a request whose handler panicked.
type PanicResponder func(c *gin.Context)

// Recovery catches panics, logs them with stack traces and answers 500 with the
// correlation ID (if available) to keep the request traceable.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return RecoveryWith(logger, respondInternalError)
}

// RecoveryWith is Recovery with a route specific response. Nothing is written
// when the handler already started the response.
func RecoveryWith(logger *slog.Logger, respond PanicResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					"error", r,
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"correlation_id", GetCorrelationID(c),
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}
				respond(c)
				c.Abort()
			}
		}()

		c.Next()
	}
}

func respondInternalError(c *gin.Context) {
	response := gin.H{
		"error": gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An internal server error occurred",
		},
	}

	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}

	c.JSON(http.StatusInternalServerError, response)
}
