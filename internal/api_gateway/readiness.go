package api_gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck pings one backing store.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// readinessHandler answers 200 when every check passes and 503 naming the
// failing stores otherwise.
func readinessHandler(checks []ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		failures := gin.H{}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				failures[check.Name] = err.Error()
			}
		}

		if len(failures) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failures": failures})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
