// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quote-orchestrator/internal/common/config"
	"quote-orchestrator/internal/common/logger"
)

// Pinger reports liveness of one backing store.
type Pinger func(ctx context.Context) error

// HealthDeps carries the store pings surfaced by /healthz. Nil entries
// are skipped.
type HealthDeps struct {
	Postgres Pinger
	Redis    Pinger
}

// NewRouter builds the HTTP surface: the quote stream endpoint, health,
// and Prometheus metrics.
func NewRouter(cfg *config.Config, runner Runner, health HealthDeps, log logger.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	quotes := NewQuoteHandler(runner, log)

	router.POST("/api/quote/stream", quotes.Stream)
	router.GET("/healthz", healthHandler(cfg, health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func healthHandler(cfg *config.Config, health HealthDeps) gin.HandlerFunc {
	pings := map[string]Pinger{
		"postgres": health.Postgres,
		"redis":    health.Redis,
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failing := map[string]string{}
		for name, ping := range pings {
			if ping == nil {
				continue
			}
			if err := ping(ctx); err != nil {
				failing[name] = err.Error()
			}
		}

		if len(failing) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"service": cfg.App.Name,
				"failing": failing,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	}
}
