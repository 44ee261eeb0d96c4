// Package metrics holds the Prometheus collectors for the HTTP layer and the
// org-chart domain. Every collector lives on a private registry so tests can
// build as many instances as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics Prometheus 指标集合；nil 接收者上的方法都是空操作
type Metrics struct {
	registry *prometheus.Registry

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec

	teamMembersCreated *prometheus.CounterVec
	teamLeadRetries    prometheus.Counter
	invitations        *prometheus.CounterVec
	picturesUploaded   prometheus.Counter
}

// New 创建并注册所有指标
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "route", "status"})

	m.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "orgchart",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"method", "route", "status"})

	m.teamMembersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "team_members_created_total",
		Help:      "Team members created, by derived role",
	}, []string{"role"})

	m.teamLeadRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "team_lead_conflicts_total",
		Help:      "Team lead inserts rejected by the storage uniqueness constraint and re-derived",
	})

	m.invitations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "invitations_total",
		Help:      "Per-id invitation outcomes",
	}, []string{"outcome"})

	m.picturesUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "orgchart",
		Name:      "pictures_uploaded_total",
		Help:      "Pictures normalized and stored",
	})

	m.registry.MustRegister(
		m.requestTotal,
		m.requestLatency,
		m.teamMembersCreated,
		m.teamLeadRetries,
		m.invitations,
		m.picturesUploaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest 记录一次 HTTP 请求
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(duration.Seconds())
}

// TeamMemberCreated 按角色计数
func (m *Metrics) TeamMemberCreated(role string) {
	if m == nil {
		return
	}
	m.teamMembersCreated.WithLabelValues(role).Inc()
}

// TeamLeadConflict counts a rejected duplicate lead.
func (m *Metrics) TeamLeadConflict() {
	if m == nil {
		return
	}
	m.teamLeadRetries.Inc()
}

// Invitation records one id's outcome: "invited" or "failed".
func (m *Metrics) Invitation(outcome string) {
	if m == nil {
		return
	}
	m.invitations.WithLabelValues(outcome).Inc()
}

// PictureUploaded 图片上传计数
func (m *Metrics) PictureUploaded() {
	if m == nil {
		return
	}
	m.picturesUploaded.Inc()
}
