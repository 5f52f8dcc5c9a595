package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Matcher metrics
	MatchRequests  *prometheus.CounterVec
	MatchLatency   prometheus.Histogram
	MatchFallbacks prometheus.Counter

	// Ledger metrics
	HoldsCreated      prometheus.Counter
	HoldConflicts     prometheus.Counter
	HoldsExpired      prometheus.Counter
	BookingsConfirmed prometheus.Counter
	BookingsCancelled prometheus.Counter
	ConfirmFailures   *prometheus.CounterVec
	ActiveHolds       prometheus.Gauge

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
}

// NewMetrics creates all application metrics registered against reg.
// Pass prometheus.DefaultRegisterer in production wiring; tests hand in
// their own registry so repeated construction does not collide.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MatchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "match_requests_total",
			Help:      "Total number of matcher queries",
		}, []string{"practice_area", "urgency"}),
		MatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "match_duration_seconds",
			Help:      "Time spent matching an inquiry to candidates",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		MatchFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "match_urgency_fallbacks_total",
			Help:      "Times the urgency window emptied the result and the unfiltered set was returned",
		}),
		HoldsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "holds_created_total",
			Help:      "Total number of slot holds created",
		}),
		HoldConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hold_conflicts_total",
			Help:      "Hold attempts rejected because the slot was not open",
		}),
		HoldsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "holds_expired_total",
			Help:      "Holds that lapsed before confirmation",
		}),
		BookingsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_confirmed_total",
			Help:      "Total number of confirmed bookings",
		}),
		BookingsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_cancelled_total",
			Help:      "Total number of cancelled bookings",
		}),
		ConfirmFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "confirm_failures_total",
			Help:      "Confirm attempts that failed, by reason",
		}, []string{"reason"}),
		ActiveHolds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_holds",
			Help:      "Current number of live holds",
		}),
		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}
