package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunCounters(t *testing.T) {
	m := New()

	m.RunStarted()
	m.RunSucceeded(240000)
	m.RunStarted()
	m.RunFailed("EXTRACTION_FAILED")

	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(m.failuresTotal.WithLabelValues("EXTRACTION_FAILED")); got != 1 {
		t.Errorf("extraction failures = %v", got)
	}
	if got := testutil.ToFloat64(m.audioBytesTotal); got != 240000 {
		t.Errorf("audio bytes = %v", got)
	}
	if got := testutil.ToFloat64(m.activeRuns); got != 0 {
		t.Errorf("active runs = %v", got)
	}
}

func TestObserveScriptCountsTruncations(t *testing.T) {
	m := New()
	m.ObserveScript(1800, false)
	m.ObserveScript(2000, true)

	if got := testutil.ToFloat64(m.truncationsTotal); got != 1 {
		t.Errorf("truncations = %v", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New()
	m.ObserveStage("extract", 2*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `podcast_stage_duration_seconds_count{stage="extract"} 1`) {
		t.Errorf("stage histogram missing from output:\n%s", body)
	}
}
