package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m, err := New("test_imo")
	if err != nil {
		t.Fatalf("new metrics failed: %v", err)
	}
	m.ObserveSweep("expiration", 150*time.Millisecond, nil)
	m.ObserveSweep("cleanup", time.Second, errors.New("boom"))
	m.AddTransitions("expired", 2)
	m.IncPaymentRecorded("stripe")
	m.IncPaymentDuplicate()
	m.AddCleanupDeleted(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`test_imo_sweep_runs_total{result="ok",sweep="expiration"} 1`,
		`test_imo_sweep_runs_total{result="error",sweep="cleanup"} 1`,
		`test_imo_listing_transitions_total{transition="expired"} 2`,
		`test_imo_payments_recorded_total{provider="stripe"} 1`,
		`test_imo_payment_duplicates_total 1`,
		`test_imo_cleanup_deleted_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSweep("expiration", time.Second, nil)
	m.AddTransitions("demoted", 1)
	m.IncPaymentRecorded("free")
	m.IncPaymentDuplicate()
	m.AddCleanupDeleted(1)
	m.IncRankingFallback()
	if m.Handler() == nil {
		t.Fatalf("nil metrics should still expose a handler")
	}
}
