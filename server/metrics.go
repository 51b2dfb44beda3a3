package server

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the server's Prometheus metrics.
type Recorder struct {
	requests       *prom.CounterVec
	exportDuration *prom.HistogramVec
	formatDuration *prom.HistogramVec
	sessions       prom.Gauge
}

// NewRecorder constructs and registers the metrics on reg.
func NewRecorder(reg prom.Registerer) *Recorder {
	r := &Recorder{
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "smartdoc",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),
		exportDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "smartdoc",
			Name:      "export_duration_seconds",
			Help:      "Duration of document exports",
			Buckets:   prom.DefBuckets,
		}, []string{"format", "result"}),
		formatDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "smartdoc",
			Name:      "format_duration_seconds",
			Help:      "Duration of structuring requests",
			Buckets:   prom.DefBuckets,
		}, []string{"mode", "result"}),
		sessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: "smartdoc",
			Name:      "sessions_active",
			Help:      "Sessions held in memory",
		}),
	}
	reg.MustRegister(r.requests, r.exportDuration, r.formatDuration, r.sessions)
	return r
}

func result(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}

func (r *Recorder) ObserveExport(format string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.exportDuration.WithLabelValues(format, result(err)).Observe(d.Seconds())
}

func (r *Recorder) ObserveFormat(mode string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.formatDuration.WithLabelValues(mode, result(err)).Observe(d.Seconds())
}

func (r *Recorder) IncRequest(route, method string, code int) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

func (r *Recorder) SetSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}
