package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/construct/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m.CompilesTotal == nil {
		t.Error("CompilesTotal is nil")
	}
	if m.PassDuration == nil {
		t.Error("PassDuration is nil")
	}
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
}

func TestObserveCompile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveCompile("Runtime", "ok", 7, 3*time.Millisecond)
	m.ObserveCompile("Runtime", "grammar_error", 0, time.Millisecond)

	families := gather(t, reg)

	compiles := families["construct_compiles_total"]
	if compiles == nil {
		t.Fatal("construct_compiles_total not found")
	}
	if len(compiles.GetMetric()) != 2 {
		t.Errorf("compiles_total series = %d, want 2", len(compiles.GetMetric()))
	}

	modules := families["construct_modules_declared"]
	if modules == nil {
		t.Fatal("construct_modules_declared not found")
	}
	if got := modules.GetMetric()[0].GetGauge().GetValue(); got != 7 {
		t.Errorf("modules_declared = %v, want 7", got)
	}
}

func TestObservePass(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObservePass("event", time.Millisecond, nil)
	m.ObservePass("call", time.Millisecond, errors.New("boom"))

	families := gather(t, reg)

	hist := families["construct_pass_duration_seconds"]
	if hist == nil || len(hist.GetMetric()) != 2 {
		t.Fatalf("pass_duration_seconds series missing: %v", hist)
	}

	errs := families["construct_pass_errors_total"]
	if errs == nil {
		t.Fatal("construct_pass_errors_total not found")
	}
	if len(errs.GetMetric()) != 1 {
		t.Fatalf("pass_errors_total series = %d, want 1", len(errs.GetMetric()))
	}
	if got := errs.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("pass_errors_total = %v, want 1", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{422, "4xx"},
		{500, "5xx"},
		{42, "unknown"},
	}
	for _, tt := range tests {
		if got := metrics.StatusClass(tt.status); got != tt.want {
			t.Errorf("StatusClass(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
