package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 汇总服务的 Prometheus 指标
// 所有方法对 nil 接收者安全，测试里可以直接传 nil
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	permissionDecisions *prometheus.CounterVec
	cycleDetections     prometheus.Counter
	shareConsumed       prometheus.Counter
	shareDenied         *prometheus.CounterVec
	auditWriteFailures  prometheus.Counter
	auditRetried        *prometheus.CounterVec
	auditMirrorFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docvault_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		permissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_permission_decisions_total",
			Help: "Folder permission checks by required level and outcome.",
		}, []string{"required", "outcome"}),
		cycleDetections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docvault_folder_cycle_detections_total",
			Help: "Ancestor walks aborted because of a cycle or an overlong chain.",
		}),
		shareConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docvault_share_consumed_total",
			Help: "Successful share link accesses.",
		}),
		shareDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_share_denied_total",
			Help: "Rejected share link accesses by reason.",
		}, []string{"reason"}),
		auditWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docvault_audit_write_failures_total",
			Help: "Access log entries that could not be written to the primary store.",
		}),
		auditRetried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_audit_retried_total",
			Help: "Access log entries replayed from the retry stream by outcome.",
		}, []string{"outcome"}),
		auditMirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docvault_audit_mirror_failures_total",
			Help: "Access log entries that could not be mirrored to Elasticsearch.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.permissionDecisions,
		m.cycleDetections,
		m.shareConsumed,
		m.shareDenied,
		m.auditWriteFailures,
		m.auditRetried,
		m.auditMirrorFailures,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler 返回 /metrics 的 http.Handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware 记录每个请求的路由、状态码和耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObservePermissionDecision(required string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.permissionDecisions.WithLabelValues(required, outcome).Inc()
}

func (m *Metrics) IncCycleDetected() {
	if m == nil {
		return
	}
	m.cycleDetections.Inc()
}

func (m *Metrics) IncShareConsumed() {
	if m == nil {
		return
	}
	m.shareConsumed.Inc()
}

func (m *Metrics) IncShareDenied(reason string) {
	if m == nil {
		return
	}
	m.shareDenied.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncAuditWriteFailure() {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc()
}

func (m *Metrics) IncAuditRetried(outcome string) {
	if m == nil {
		return
	}
	m.auditRetried.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncAuditMirrorFailure() {
	if m == nil {
		return
	}
	m.auditMirrorFailures.Inc()
}

// ShareDenied 返回某原因的拒绝计数，测试使用
func (m *Metrics) ShareDenied(reason string) prometheus.Counter {
	return m.shareDenied.WithLabelValues(reason)
}

func (m *Metrics) AuditWriteFailures() prometheus.Counter {
	return m.auditWriteFailures
}

func (m *Metrics) AuditRetried(outcome string) prometheus.Counter {
	return m.auditRetried.WithLabelValues(outcome)
}

func (m *Metrics) AuditMirrorFailures() prometheus.Counter {
	return m.auditMirrorFailures
}

func (m *Metrics) PermissionDecisions(required, outcome string) prometheus.Counter {
	return m.permissionDecisions.WithLabelValues(required, outcome)
}

func (m *Metrics) CycleDetections() prometheus.Counter {
	return m.cycleDetections
}
