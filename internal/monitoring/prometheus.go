package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors exposed on the metrics port. Registered through
// promauto on the default registry, served by promhttp in cmd/main.go.
var (
	// TransitionsTotal counts applied order status transitions by resulting status.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickbite_order_transitions_total",
		Help: "Order status transitions applied, by resulting status.",
	}, []string{"status"})

	// EventsDispatched counts room publishes by event kind.
	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickbite_events_dispatched_total",
		Help: "Events published to rooms, by event kind.",
	}, []string{"event"})

	// ActiveSessions tracks currently connected websocket sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quickbite_ws_sessions",
		Help: "Currently connected websocket sessions.",
	})

	// LocationSamplesDropped counts location samples rejected by validation.
	LocationSamplesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbite_location_samples_dropped_total",
		Help: "Location samples rejected as malformed.",
	})
)
