// Package health serves liveness, readiness and detailed health endpoints.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const defaultCheckTimeout = 5 * time.Second

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status     Status `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report is the overall health status.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// Check defines a single health check.
type Check struct {
	Name    string
	Fn      func(ctx context.Context) error
	Timeout time.Duration

	// Critical failures make the report unhealthy; others degrade it.
	Critical bool
}

// Checker runs registered checks concurrently.
type Checker struct {
	checks  []Check
	version string
	now     func() time.Time
	mu      sync.RWMutex
}

// NewChecker creates a checker reporting version.
func NewChecker(version string) *Checker {
	return &Checker{
		version: version,
		now:     time.Now,
	}
}

// AddCheck adds a non-critical check.
func (hc *Checker) AddCheck(name string, fn func(context.Context) error, timeout time.Duration) {
	hc.add(Check{Name: name, Fn: fn, Timeout: timeout})
}

// AddCriticalCheck adds a check whose failure makes the service unhealthy.
func (hc *Checker) AddCriticalCheck(name string, fn func(context.Context) error, timeout time.Duration) {
	hc.add(Check{Name: name, Fn: fn, Timeout: timeout, Critical: true})
}

func (hc *Checker) add(c Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Run executes every check and aggregates the results.
func (hc *Checker) Run(ctx context.Context) Report {
	hc.mu.RLock()
	checks := make([]Check, len(hc.checks))
	copy(checks, hc.checks)
	hc.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: hc.now(),
		Version:   hc.version,
	}

	type outcome struct {
		name     string
		result   CheckResult
		critical bool
	}

	results := make(chan outcome, len(checks))
	var wg sync.WaitGroup

	for _, c := range checks {
		wg.Add(1)
		go func(check Check) {
			defer wg.Done()

			timeout := check.Timeout
			if timeout <= 0 {
				timeout = defaultCheckTimeout
			}
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := check.Fn(checkCtx)

			result := CheckResult{
				Status:     StatusHealthy,
				DurationMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
			}
			results <- outcome{name: check.Name, result: result, critical: check.Critical}
		}(c)
	}

	wg.Wait()
	close(results)

	for r := range results {
		report.Checks[r.name] = r.result
		if r.result.Status == StatusHealthy {
			continue
		}
		if r.critical {
			report.Status = StatusUnhealthy
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}

	return report
}

// LivenessHandler reports 200 while the process can serve requests.
func (hc *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "alive",
			"timestamp": hc.now(),
		})
	})
}

// ReadinessHandler reports 503 when a critical check fails.
func (hc *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Run(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	})
}

// HealthHandler always reports 200 with the detailed report.
func (hc *Checker) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hc.Run(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// CapacityError reports a pool at its limit.
type CapacityError struct {
	Resource string
	Current  int
	Max      int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s at capacity (%d/%d)", e.Resource, e.Current, e.Max)
}

// CapacityCheck fails when count reaches max. A non-positive max never fails.
func CapacityCheck(resource string, count func() int, max int) func(context.Context) error {
	return func(ctx context.Context) error {
		if max <= 0 {
			return nil
		}
		if n := count(); n >= max {
			return &CapacityError{Resource: resource, Current: n, Max: max}
		}
		return nil
	}
}

// ErrDraining is reported by DrainingCheck once shutdown has begun.
var ErrDraining = errors.New("shutting down")

// DrainingCheck fails once draining reports true, so load balancers stop
// routing new connections during shutdown.
func DrainingCheck(draining func() bool) func(context.Context) error {
	return func(ctx context.Context) error {
		if draining() {
			return ErrDraining
		}
		return nil
	}
}
