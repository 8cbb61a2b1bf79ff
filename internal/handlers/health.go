package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	rdb     redis.UniversalClient
	startAt time.Time
}

// NewHealthHandler checks the database and, when rdb is non-nil, Redis.
func NewHealthHandler(db *gorm.DB, rdb redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, startAt: time.Now()}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{
		"database": h.checkDB(ctx),
		"redis":    h.checkRedis(ctx),
	}
	status, code := "healthy", http.StatusOK
	for _, v := range checks {
		if v.(gin.H)["status"] == "down" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":         status,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
	})
}

func (h *HealthHandler) checkDB(ctx context.Context) gin.H {
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	return checkResult(start, err)
}

func (h *HealthHandler) checkRedis(ctx context.Context) gin.H {
	if h.rdb == nil {
		return gin.H{"status": "disabled"}
	}
	start := time.Now()
	return checkResult(start, h.rdb.Ping(ctx).Err())
}

func checkResult(start time.Time, err error) gin.H {
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return gin.H{"status": "down", "latency_ms": latency, "error": "connection failed"}
	}
	return gin.H{"status": "up", "latency_ms": latency}
}

// Metrics serves the collectors registered on g.
func Metrics(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
