package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}

	m.EventPublished("food-matched")
	m.EventPublished("food-matched")
	m.EventDropped("new-food-listing")
	m.MatchAttempt("matched")
	m.FoodExpired(3)
	m.FoodExpired(0)

	expected := `
# HELP foodrescue_events_published_total Domain events delivered to sinks
# TYPE foodrescue_events_published_total counter
foodrescue_events_published_total{name="food-matched"} 2
`
	if err := testutil.CollectAndCompare(m.eventsPublished, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(m.eventsDropped.WithLabelValues("new-food-listing")); v != 1 {
		t.Errorf("expected 1 dropped event, got %v", v)
	}
	if v := testutil.ToFloat64(m.foodExpired); v != 3 {
		t.Errorf("expected 3 expired, got %v", v)
	}
}

func TestMetrics_SubscriberGauge(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}
	m.SubscriberAdded()
	m.SubscriberAdded()
	m.SubscriberRemoved()
	if v := testutil.ToFloat64(m.subscribers); v != 1 {
		t.Errorf("expected 1 subscriber, got %v", v)
	}
}

func TestMetrics_ReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}
	second, err := New(reg)
	if err != nil {
		t.Fatalf("re-register metrics: %v", err)
	}

	first.TxConflict()
	second.TxConflict()
	if v := testutil.ToFloat64(first.txConflicts); v != 2 {
		t.Errorf("expected shared counter at 2, got %v", v)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.EventPublished("x")
	m.EventDropped("x")
	m.StreamEventDropped("x")
	m.MatchAttempt("x")
	m.DeliveryTransition("x")
	m.FoodExpired(1)
	m.TxConflict()
	m.SubscriberAdded()
	m.SubscriberRemoved()
	m.HTTPRequest("GET", "/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Errorf("expected 200 from nil handler, got %d", rec.Code)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}
	m.HTTPRequest("GET", "/api/food", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `foodrescue_http_requests_total{code="200",method="GET",route="/api/food"} 1`) {
		t.Errorf("expected request counter in output, got:\n%s", body)
	}
}
