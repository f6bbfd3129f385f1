package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           Pinger
	API              *APIHandlers
	AllowedOrigins   []string
	AllowCredentials bool
	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer
}

type loggerFunc func(msg string, args ...any)

// NewRouter wires the HTTP routes exposed by the API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), accessLog(logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials))
	}

	health := healthHandler(deps.Health, logger.Error)
	router.GET("/", health)
	router.GET("/healthz", health)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	if api := deps.API; api != nil {
		users := router.Group("/users")
		users.POST("", api.upsertUser)
		users.GET("", api.listUsers)
		users.GET("/count", api.countUsers)
		users.GET("/export", api.exportUsers)

		txs := router.Group("/transactions")
		txs.POST("", api.createTransaction)
		txs.GET("", api.listTransactions)
		txs.GET("/count", api.countTransactions)
		txs.GET("/export", api.exportTransactions)

		rel := router.Group("/relationships")
		rel.GET("/user/:id", api.userRelationships)
		rel.GET("/transaction/:id", api.transactionRelationships)
	}

	return router
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware echoes explicitly listed origins and allows credentials for
// them when enabled. A "*" entry admits any other origin with a literal "*"
// and never with credentials.
func corsMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		explicit := origin != "" && containsOrigin(normalized, origin)
		if origin == "" || (!explicit && !containsOrigin(normalized, "*")) {
			if c.Request.Method == http.MethodOptions {
				// Reject bare pre-flight if origin is not whitelisted.
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		if explicit {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if allowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
