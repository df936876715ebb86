package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pinger is anything readiness depends on.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	version string
	checks  map[string]Pinger
	timeout time.Duration
	log     *zap.Logger
}

func NewHealthHandler(version string, checks map[string]Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{version: version, checks: checks, timeout: 3 * time.Second, log: log}
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Ready runs every dependency check in parallel and reports each result.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	outcome := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			outcome[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	for i, name := range names {
		if err := outcome[i]; err != nil {
			h.log.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "not ready"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
