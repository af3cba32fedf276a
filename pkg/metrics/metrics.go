package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Permits is the current flow-control permit balance per worker,
	// labeled by the worker kind ("command", "query", "event").
	Permits = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshrun_permits",
			Help: "Current flow-control permit balance by worker kind",
		},
		[]string{"worker"},
	)

	FlowControlGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_flow_control_grants_total",
			Help: "Total number of FlowControl instructions emitted by worker kind",
		},
		[]string{"worker"},
	)

	Subscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshrun_subscriptions",
			Help: "Number of active subscriptions by worker kind",
		},
		[]string{"worker"},
	)

	// Command provider metrics
	CommandsHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_commands_handled_total",
			Help: "Total number of commands handled, by command name and outcome",
		},
		[]string{"command", "outcome"},
	)

	CommandHandleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meshrun_command_handle_duration_seconds",
			Help:    "Time to replay, dispatch, append and reply to one command",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	EventsReplayedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrun_events_replayed_total",
			Help: "Total number of events replayed while rebuilding a projection",
		},
	)

	EventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_events_appended_total",
			Help: "Total number of events appended to the event store, by aggregate type",
		},
		[]string{"aggregate_type"},
	)

	AppendRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_append_rejections_total",
			Help: "Total number of append calls rejected by the broker, by aggregate type",
		},
		[]string{"aggregate_type"},
	)

	// Query provider metrics
	QueriesHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_queries_handled_total",
			Help: "Total number of queries handled, by query name and outcome",
		},
		[]string{"query", "outcome"},
	)

	// Event processor metrics
	EventsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_events_processed_total",
			Help: "Total number of events processed, by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	EventProcessorToken = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshrun_event_processor_token",
			Help: "Highest tracking token successfully persisted by the event processor",
		},
	)

	EventProcessorHalted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshrun_event_processor_halted",
			Help: "1 if the event processor has halted after a handler failure, 0 otherwise",
		},
	)

	// Submit client metrics
	CommandsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_commands_submitted_total",
			Help: "Total number of commands submitted through the point-to-point client, by outcome",
		},
		[]string{"outcome"},
	)

	QueriesSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrun_queries_submitted_total",
			Help: "Total number of queries submitted through the point-to-point client, by outcome",
		},
		[]string{"outcome"},
	)

	// Bootstrap metrics
	ConnectAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrun_connect_attempts_total",
			Help: "Total number of connection bootstrap attempts, successful or not",
		},
	)

	Connected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshrun_connected",
			Help: "1 if the connection bootstrapper has a live channel, 0 otherwise",
		},
	)
)

func init() {
	prometheus.MustRegister(Permits)
	prometheus.MustRegister(FlowControlGrantsTotal)
	prometheus.MustRegister(Subscriptions)
	prometheus.MustRegister(CommandsHandledTotal)
	prometheus.MustRegister(CommandHandleDuration)
	prometheus.MustRegister(EventsReplayedTotal)
	prometheus.MustRegister(EventsAppendedTotal)
	prometheus.MustRegister(AppendRejectionsTotal)
	prometheus.MustRegister(QueriesHandledTotal)
	prometheus.MustRegister(EventsProcessedTotal)
	prometheus.MustRegister(EventProcessorToken)
	prometheus.MustRegister(EventProcessorHalted)
	prometheus.MustRegister(CommandsSubmittedTotal)
	prometheus.MustRegister(QueriesSubmittedTotal)
	prometheus.MustRegister(ConnectAttemptsTotal)
	prometheus.MustRegister(Connected)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
