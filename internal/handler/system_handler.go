package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck struct {
	Name string
	// Critical checks turn the overall status to "down"; others only
	// degrade it.
	Critical bool
	Ping     func(ctx context.Context) error
}

// SystemHandler reports process and dependency health.
type SystemHandler struct {
	checks    []HealthCheck
	queueLen  func(ctx context.Context) (int64, error)
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. queueLen may be nil.
func NewSystemHandler(checks []HealthCheck, queueLen func(ctx context.Context) (int64, error), log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		checks:    checks,
		queueLen:  queueLen,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health godoc
// GET /health
// Returns 200 while every critical dependency answers, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	// Checks run concurrently; a failed one never cancels the others.
	results := make([]dependencyStatus, len(h.checks))
	var g errgroup.Group
	for i, check := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := check.Ping(ctx)
			results[i] = dependencyStatus{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				results[i].Status, results[i].Error = "down", err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	deps := make(map[string]dependencyStatus, len(h.checks))
	for i, check := range h.checks {
		d := results[i]
		if d.Status != "ok" {
			if check.Critical {
				status = "down"
			} else if status == "ok" {
				status = "degraded"
			}
			h.log.Warn().Str("dependency", check.Name).Str("error", d.Error).Msg("Health check failed")
		}
		deps[check.Name] = d
	}

	body := gin.H{
		"status":       status,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
		"goroutines":   runtime.NumGoroutine(),
		"dependencies": deps,
	}
	if h.queueLen != nil {
		if n, err := h.queueLen(ctx); err == nil {
			body["pending_match_attempts"] = n
		}
	}

	code := http.StatusOK
	if status == "down" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, body)
}
