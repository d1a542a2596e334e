package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
)

// HealthChecker is a dependency the readiness probe checks.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc struct {
	Component string
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string                    { return c.Component }
func (c CheckFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
	timeout  time.Duration
	metrics  *prometheus.AppMetrics
}

// NewHealthHandler creates a HealthHandler.  metrics may be nil.
func NewHealthHandler(version string, metrics *prometheus.AppMetrics, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
		timeout:  5 * time.Second,
		metrics:  metrics,
	}
}

// LivenessResponse is the response for the liveness probe.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Liveness handles GET /healthz.  It never touches dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz.  Any failing component yields 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report := apitypes.ReadinessReport{Status: apitypes.HealthUp, Components: h.checkAll(ctx)}
	for _, c := range report.Components {
		if c.Status == apitypes.HealthDown {
			report.Status = apitypes.HealthDown
		}
	}

	code := http.StatusOK
	if report.Status == apitypes.HealthDown {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

// checkAll runs every checker concurrently; results are sorted by name.
func (h *HealthHandler) checkAll(ctx context.Context) []apitypes.ComponentHealth {
	results := make([]apitypes.ComponentHealth, len(h.checkers))
	var wg sync.WaitGroup
	for i, checker := range h.checkers {
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			ch := apitypes.ComponentHealth{
				Name:      c.Name(),
				Status:    apitypes.HealthUp,
				LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
			}
			if err != nil {
				ch.Status = apitypes.HealthDown
				ch.Message = err.Error()
			}
			if h.metrics != nil {
				prometheus.SetHealth(h.metrics, ch.Name, err == nil)
			}
			results[i] = ch
		}(i, checker)
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].Name < results[b].Name })
	return results
}

//Personal.AI order the ending
