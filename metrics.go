package requeue

import (
	"time"

	// Packages
	prometheus "github.com/prometheus/client_golang/prometheus"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// metrics counts executor outcomes and request latency. A nil value
// records nothing.
type metrics struct {
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	outcomeAccepted    = "accepted"
	outcomeNotAccepted = "not_accepted"
	outcomeNotSent     = "not_sent"
	outcomeMalformed   = "malformed"
	outcomeUndelivered = "undelivered"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newMetrics(ns string) *metrics {
	labels := prometheus.Labels{"namespace": ns}
	return &metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "requeue_executor_outcomes_total",
			Help:        "Number of executor attempts by outcome",
			ConstLabels: labels,
		}, []string{"executor", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "requeue_executor_request_seconds",
			Help:        "Time taken to send a request and read the response",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"executor"}),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - COLLECTOR

// Describe sends metric descriptors to the channel
func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	m.outcomes.Describe(ch)
	m.latency.Describe(ch)
}

// Collect sends the current values to the channel
func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	m.outcomes.Collect(ch)
	m.latency.Collect(ch)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (m *metrics) outcome(executor, outcome string) {
	if m != nil {
		m.outcomes.WithLabelValues(executor, outcome).Inc()
	}
}

func (m *metrics) observe(executor string, d time.Duration) {
	if m != nil {
		m.latency.WithLabelValues(executor).Observe(d.Seconds())
	}
}
