package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务端 Prometheus 指标
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	ops      *prometheus.CounterVec
}

// NewMetrics registers HTTP and library metrics on reg. wsClients, when set,
// is exported as a gauge of connected change-notification clients.
func NewMetrics(reg prometheus.Registerer, wsClients func() int) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunebox_http_requests_total",
			Help: "按路由、方法和状态码统计的 HTTP 请求数",
		}, []string{"route", "method", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tunebox_http_request_duration_seconds",
			Help:    "HTTP 请求耗时（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunebox_library_operations_total",
			Help: "曲库操作结果统计",
		}, []string{"op", "status_code"}),
	}
	reg.MustRegister(m.requests, m.latency, m.ops)

	if wsClients != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tunebox_ws_clients",
			Help: "当前连接的变更通知客户端数",
		}, func() float64 { return float64(wsClients()) }))
	}
	return m
}

func (m *Metrics) recordOp(op string, status int) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		// websocket upgrades need the raw writer for hijacking
		if route == wsRoute {
			m.requests.WithLabelValues(route, r.Method, "101").Inc()
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

// MetricsHandler 返回 Prometheus 抓取接口
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
