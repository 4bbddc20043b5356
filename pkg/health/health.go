// Package health aggregates dependency probes for the catalog service. The
// search backend is critical: without it no uncached query can be answered.
// The result cache is degradable: when it is down the service keeps serving
// and every lookup becomes a miss, so a cache outage degrades readiness but
// never revokes it.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cinemahub/catalog-service/pkg/logger"
)

// Status is the health state of a dependency or of the service overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Probe checks one dependency. A nil return means the dependency is healthy.
type Probe func(ctx context.Context) error

type registration struct {
	probe    Probe
	critical bool
}

// ComponentHealth is the outcome of one probe.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report aggregates all probe outcomes. Status is the worst component
// status: any critical failure makes it down, any degradable failure makes
// it degraded.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker runs registered probes concurrently.
type Checker struct {
	mu            sync.RWMutex
	registrations map[string]registration
	logger        *slog.Logger
}

func NewChecker() *Checker {
	return &Checker{
		registrations: make(map[string]registration),
		logger:        logger.WithComponent("health"),
	}
}

// Critical registers a probe whose failure takes the service down.
func (c *Checker) Critical(name string, probe Probe) {
	c.register(name, probe, true)
}

// Degradable registers a probe whose failure only degrades the service.
func (c *Checker) Degradable(name string, probe Probe) {
	c.register(name, probe, false)
}

func (c *Checker) register(name string, probe Probe, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations[name] = registration{probe: probe, critical: critical}
}

// Run executes all probes concurrently and aggregates the worst status.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	registrations := make(map[string]registration, len(c.registrations))
	for name, reg := range c.registrations {
		registrations[name] = reg
	}
	c.mu.RUnlock()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(registrations)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, reg := range registrations {
		wg.Add(1)
		go func(name string, reg registration) {
			defer wg.Done()
			start := time.Now()
			result := ComponentHealth{Status: StatusUp}
			if err := reg.probe(ctx); err != nil {
				result.Status = StatusDegraded
				if reg.critical {
					result.Status = StatusDown
				}
				result.Message = err.Error()
				c.logger.Warn("health probe failed", "name", name, "error", err)
			}
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			report.Components[name] = result
			mu.Unlock()
		}(name, reg)
	}
	wg.Wait()

	for _, comp := range report.Components {
		switch comp.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

// LiveHandler reports process liveness only; it never probes dependencies.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadyHandler runs the probes. A degraded service stays ready: the cache
// is fail-open, so traffic is still served. Only a down status returns 503.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	}
}
