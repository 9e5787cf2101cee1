// Package metrics exposes Prometheus collectors for the web server and the
// sync worker. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moim/internal/core"
	"moim/internal/ledger"
)

const namespace = "moim"

type Metrics struct {
	registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	meetingsSaved  *prometheus.CounterVec
	commentsPosted prometheus.Counter
	photosAdded    prometheus.Counter
	syncExports    *prometheus.CounterVec
	editSessions   prometheus.Gauge
}

// New registers all collectors, plus the Go runtime and process collectors,
// on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		meetingsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_saved_total",
			Help:      "Meetings saved from the edit form.",
		}, []string{"operation"}),
		commentsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_posted_total",
			Help:      "Comments appended to meetings.",
		}),
		photosAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_added_total",
			Help:      "Photos uploaded to meeting galleries.",
		}),
		syncExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_exports_total",
			Help:      "Meeting exports to the spreadsheet by result.",
		}, []string{"result"}),
		editSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "edit_sessions_open",
			Help:      "Edit sessions currently held in memory.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.meetingsSaved,
		m.commentsPosted,
		m.photosAdded,
		m.syncExports,
		m.editSessions,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) MeetingSaved(created bool) {
	if m == nil {
		return
	}
	op := "update"
	if created {
		op = "create"
	}
	m.meetingsSaved.WithLabelValues(op).Inc()
}

func (m *Metrics) CommentPosted() {
	if m == nil {
		return
	}
	m.commentsPosted.Inc()
}

func (m *Metrics) PhotoAdded() {
	if m == nil {
		return
	}
	m.photosAdded.Inc()
}

func (m *Metrics) SetEditSessions(n int) {
	if m == nil {
		return
	}
	m.editSessions.Set(float64(n))
}

func (m *Metrics) ExportResult(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.syncExports.WithLabelValues(result).Inc()
}

// InstrumentExporter counts the outcome of every export made through e.
func (m *Metrics) InstrumentExporter(e ledger.SummaryExporter) ledger.SummaryExporter {
	if m == nil {
		return e
	}
	return &instrumentedExporter{next: e, metrics: m}
}

type instrumentedExporter struct {
	next    ledger.SummaryExporter
	metrics *Metrics
}

func (e *instrumentedExporter) ExportMeeting(ctx context.Context, m core.Meeting) error {
	err := e.next.ExportMeeting(ctx, m)
	e.metrics.ExportResult(err)
	return err
}
