package health

import (
	"net/http"
	"runtime"
	"time"

	"fridgechef/internal/core/cache"
	"fridgechef/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports process status and cache tier statistics.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	cfg  *config.Config
	tier *cache.Tier
}

func NewHandler(cfg *config.Config, tier *cache.Tier) *Handler {
	return &Handler{cfg: cfg, tier: tier}
}

// HealthCheck reports process stats; it never fails while the process is
// serving.
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":  m.Alloc,
				"sys":    m.Sys,
				"num_gc": m.NumGC,
			},
		},
		Cache: h.tier.Stats(),
	})
}

// ReadinessCheck verifies the shared cache store. A degraded cache still
// reports ready: the pipeline works local-only.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	status := gin.H{"status": "ready"}
	if err := h.tier.Ready(c.Request.Context()); err != nil {
		status["cache"] = "degraded"
	}
	c.JSON(http.StatusOK, status)
}

// LivenessCheck answers as long as the process is up.
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
