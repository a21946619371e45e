package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("yahoo", "series", time.Now(), errors.New("boom"))
	m.ObserveForecast(time.Now(), nil)
	m.LiveSessionStarted()
	m.LiveSessionEnded()
	m.RecordTick("update")
	m.ClientConnected("live", 1)
	m.RecordAuth("signin", nil)
	m.RecordSubmission("report")
	m.RecordNotification("telegram", nil)
	m.RecordJob("purge", nil)
}

func TestObserveFetchCountsErrors(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveFetch("yahoo", "series", time.Now(), nil)
	m.ObserveFetch("yahoo", "series", time.Now(), errors.New("timeout"))

	body := scrape(t, m)
	if !strings.Contains(body, `test_market_fetch_errors_total{op="series",provider="yahoo"} 1`) {
		t.Errorf("metrics output missing fetch error counter:\n%s", body)
	}
	if !strings.Contains(body, `test_market_fetch_latency_seconds_count{op="series",provider="yahoo"} 2`) {
		t.Errorf("metrics output missing latency count:\n%s", body)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := NewMetrics("test")
	m.RecordAuth("signup", nil)

	if body := scrape(t, m); !strings.Contains(body, `test_auth_events_total{action="signup",result="success"} 1`) {
		t.Errorf("metrics output missing auth counter:\n%s", body)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}
