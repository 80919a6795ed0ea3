package httphandler

import (
	"context"
	"net/http"
	"time"

	// Packages
	requeue "github.com/mutablelogic/go-requeue"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	prometheus "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	metricsTimeout = 30 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type metrics struct {
	client  *requeue.Client
	jobs    *prometheus.Desc
	waiters *prometheus.Desc
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterMetricsHandler registers a HTTP handler for prometheus metrics
// on the provided router with the given path prefix. The client must be non-nil.
func RegisterMetricsHandler(router *http.ServeMux, prefix string, client *requeue.Client, middleware HTTPMiddlewareFuncs) {
	if client == nil {
		panic("client is nil")
	}

	// Create a prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newMetrics(client), client.Collector())
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Create a handler for metrics
	router.HandleFunc(joinPath(prefix, "metrics"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ServeHTTP(w, r)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newMetrics(client *requeue.Client) *metrics {
	return &metrics{
		client: client,
		jobs: prometheus.NewDesc(
			"requeue_jobs",
			"Number of jobs in each channel by status",
			[]string{"namespace", "channel", "status"}, nil,
		),
		waiters: prometheus.NewDesc(
			"requeue_waiters",
			"Number of callers waiting for a response",
			[]string{"namespace"}, nil,
		),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - COLLECTOR

// Describe sends metric descriptors to the channel
func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.jobs
	ch <- m.waiters
}

// Collect fetches metrics from the database and sends them to the channel
func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
	defer cancel()

	if err := m.collectChannelStatuses(ctx, ch); err != nil {
		ch <- prometheus.NewInvalidMetric(m.jobs, err)
	}
	ch <- prometheus.MustNewConstMetric(m.waiters, prometheus.GaugeValue, float64(m.client.Waiters()), m.client.Namespace())
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (m *metrics) collectChannelStatuses(ctx context.Context, ch chan<- prometheus.Metric) error {
	statuses, err := m.client.ChannelStatus(ctx, "")
	if err != nil {
		return err
	}

	// Send metrics for each channel/status combination
	namespace := m.client.Namespace()
	for _, status := range statuses {
		ch <- prometheus.MustNewConstMetric(
			m.jobs,
			prometheus.GaugeValue,
			float64(status.Count),
			namespace,
			status.Queue,
			status.Status,
		)
	}

	return nil
}
