package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by every graph store.
type Pinger interface {
	VerifyConnectivity(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

func healthHandler(pinger Pinger, logger loggerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		}
		if pinger == nil {
			c.JSON(http.StatusOK, payload)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := pinger.VerifyConnectivity(ctx); err != nil {
			logger("health check failed", "error", err)
			payload["status"] = "degraded"
			payload["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, payload)
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}
