package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	streamDropped   *prometheus.CounterVec
	matches         *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	foodExpired     prometheus.Counter
	txConflicts     prometheus.Counter
	subscribers     prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// New registers the collectors on reg. If reg is nil a fresh registry is
// used. Collectors already registered on reg are reused.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{gatherer: reg}

	var err error
	if m.eventsPublished, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodrescue_events_published_total",
		Help: "Domain events delivered to sinks",
	}, []string{"name"})); err != nil {
		return nil, err
	}
	if m.eventsDropped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodrescue_events_dropped_total",
		Help: "Domain events dropped because the dispatch queue was full",
	}, []string{"name"})); err != nil {
		return nil, err
	}
	if m.streamDropped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodrescue_stream_events_dropped_total",
		Help: "Events a stream subscriber missed because its buffer was full",
	}, []string{"name"})); err != nil {
		return nil, err
	}
	if m.matches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodrescue_match_attempts_total",
		Help: "Match attempts by outcome",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.deliveries, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodrescue_delivery_transitions_total",
		Help: "Delivery status transitions by target status",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if m.foodExpired, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodrescue_food_expired_total",
		Help: "Listings marked expired by the sweeper",
	})); err != nil {
		return nil, err
	}
	if m.txConflicts, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodrescue_tx_conflicts_total",
		Help: "Transactions retried after a version conflict",
	})); err != nil {
		return nil, err
	}
	if m.subscribers, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "foodrescue_stream_subscribers",
		Help: "Connected event stream subscribers",
	})); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodrescue_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})); err != nil {
		return nil, err
	}
	if m.httpLatency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodrescue_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) EventPublished(name string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(name).Inc()
}

func (m *Metrics) EventDropped(name string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(name).Inc()
}

func (m *Metrics) StreamEventDropped(name string) {
	if m == nil {
		return
	}
	m.streamDropped.WithLabelValues(name).Inc()
}

func (m *Metrics) MatchAttempt(result string) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(result).Inc()
}

func (m *Metrics) DeliveryTransition(status string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(status).Inc()
}

func (m *Metrics) FoodExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.foodExpired.Add(float64(n))
}

func (m *Metrics) TxConflict() {
	if m == nil {
		return
	}
	m.txConflicts.Inc()
}

func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

func (m *Metrics) HTTPRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
