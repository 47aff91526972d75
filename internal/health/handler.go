// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devassets/assets-api/internal/core"
)

type Checker interface {
	Ping(ctx context.Context) error
}

// Config wires the dependencies probed by /readyz. Redis is optional: the
// service runs without it on the in-memory revocation registry and the
// local rate limiter, and the redis check is then left out.
type Config struct {
	Database   Checker
	Redis      Checker
	DBStats    func() sql.DBStats
	RedisStats func() *core.RedisPoolStats
}

type Handler struct {
	cfg      Config
	ready    atomic.Bool
	shutdown atomic.Bool
}

func NewHandler(cfg Config) *Handler {
	h := &Handler{cfg: cfg}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	h.writeStatus(w, http.StatusOK, StatusResponse{
		Status: "ok",
	})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	if !h.ready.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "not_ready",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.runHealthChecks(ctx)

	allHealthy := true
	for _, check := range checks {
		if !check.Healthy {
			allHealthy = false
			break
		}
	}

	status := "ok"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.writeStatus(w, statusCode, ReadinessResponse{
		Status: status,
		Checks: checks,
		Pools:  h.poolStats(),
	})
}

func (h *Handler) runHealthChecks(ctx context.Context) []HealthCheck {
	type probe struct {
		name    string
		checker Checker
	}

	probes := []probe{{name: "database", checker: h.cfg.Database}}
	if h.cfg.Redis != nil {
		probes = append(probes, probe{name: "redis", checker: h.cfg.Redis})
	}

	var wg sync.WaitGroup
	checks := make([]HealthCheck, len(probes))

	for i, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = check(ctx, p.name, p.checker)
		}()
	}

	wg.Wait()
	return checks
}

func check(ctx context.Context, name string, checker Checker) HealthCheck {
	result := HealthCheck{
		Name:    name,
		Healthy: true,
	}

	if checker == nil {
		result.Healthy = false
		result.Message = name + " checker not configured"
		return result
	}

	start := time.Now()
	err := checker.Ping(ctx)
	result.Latency = time.Since(start).String()

	if err != nil {
		result.Healthy = false
		result.Message = "ping failed"
	}

	return result
}

func (h *Handler) poolStats() *PoolStats {
	if h.cfg.DBStats == nil && h.cfg.RedisStats == nil {
		return nil
	}

	pools := &PoolStats{}

	if h.cfg.DBStats != nil {
		stats := h.cfg.DBStats()
		pools.Database = &DBPoolStats{
			MaxOpenConnections: stats.MaxOpenConnections,
			OpenConnections:    stats.OpenConnections,
			InUse:              stats.InUse,
			Idle:               stats.Idle,
			WaitCount:          stats.WaitCount,
			WaitDuration:       stats.WaitDuration.String(),
		}
	}

	if h.cfg.RedisStats != nil {
		pools.Redis = h.cfg.RedisStats()
	}

	return pools
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
	Pools  *PoolStats    `json:"pools,omitempty"`
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

type PoolStats struct {
	Database *DBPoolStats         `json:"database,omitempty"`
	Redis    *core.RedisPoolStats `json:"redis,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"maxOpenConnections"`
	OpenConnections    int    `json:"openConnections"`
	InUse              int    `json:"inUse"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"waitCount"`
	WaitDuration       string `json:"waitDuration"`
}
