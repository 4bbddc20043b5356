package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ok(ctx context.Context) error   { return nil }
func fail(ctx context.Context) error { return errors.New("connection refused") }

func TestRunAllUp(t *testing.T) {
	c := NewChecker()
	c.Critical("elasticsearch", ok)
	c.Degradable("redis", ok)

	report := c.Run(context.Background())
	if report.Status != StatusUp {
		t.Errorf("expected up, got %s", report.Status)
	}
	if len(report.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(report.Components))
	}
}

func TestCriticalFailureTakesServiceDown(t *testing.T) {
	c := NewChecker()
	c.Critical("elasticsearch", fail)
	c.Degradable("redis", ok)

	report := c.Run(context.Background())
	if report.Status != StatusDown {
		t.Errorf("expected down, got %s", report.Status)
	}
	if report.Components["elasticsearch"].Status != StatusDown {
		t.Errorf("expected component down, got %s", report.Components["elasticsearch"].Status)
	}
	if report.Components["elasticsearch"].Message == "" {
		t.Error("expected failure message on component")
	}
}

func TestDegradableFailureOnlyDegrades(t *testing.T) {
	c := NewChecker()
	c.Critical("elasticsearch", ok)
	c.Degradable("redis", fail)

	report := c.Run(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("a cache outage must degrade, not take down; got %s", report.Status)
	}
	if report.Components["redis"].Status != StatusDegraded {
		t.Errorf("expected component degraded, got %s", report.Components["redis"].Status)
	}
}

func TestReadyHandlerStatusCodes(t *testing.T) {
	cases := []struct {
		name     string
		backend  Probe
		cache    Probe
		wantCode int
	}{
		{"all up", ok, ok, http.StatusOK},
		{"cache down stays ready", ok, fail, http.StatusOK},
		{"backend down is not ready", fail, ok, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChecker()
			c.Critical("elasticsearch", tc.backend)
			c.Degradable("redis", tc.cache)

			rec := httptest.NewRecorder()
			c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if rec.Code != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			var report Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decoding report: %v", err)
			}
			if len(report.Components) != 2 {
				t.Errorf("expected 2 components in report, got %d", len(report.Components))
			}
		})
	}
}

func TestLiveHandlerNeverProbes(t *testing.T) {
	c := NewChecker()
	c.Critical("elasticsearch", fail)

	rec := httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not depend on dependencies, got %d", rec.Code)
	}
}
