package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login and register failure reasons.
const (
	ReasonInvalidUsername = "invalid_username"
	ReasonInvalidPassword = "invalid_password"
	ReasonValidation      = "validation"
	ReasonUsernameTaken   = "username_taken"
)

// Metrics groups the application's collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	LoginSuccess    prometheus.Counter
	LoginFailure    *prometheus.CounterVec
	RegisterSuccess prometheus.Counter
	RegisterFailure *prometheus.CounterVec
	MessagesPosted  prometheus.Counter
	Follows         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		LoginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "login_success_total",
			Help: "Total successful login attempts",
		}),
		LoginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "login_failure_total",
			Help: "Total failed login attempts",
		}, []string{"reason"}),
		RegisterSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "register_success_total",
			Help: "Total successful register attempts",
		}),
		RegisterFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "register_failure_total",
			Help: "Total rejected register attempts",
		}, []string{"reason"}),
		MessagesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_posted_total",
			Help: "Total messages successfully posted",
		}),
		Follows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "follows_total",
			Help: "Total follow and unfollow actions",
		}, []string{"action"}),
	}

	m.registry.MustRegister(
		m.RequestDuration,
		m.LoginSuccess,
		m.LoginFailure,
		m.RegisterSuccess,
		m.RegisterFailure,
		m.MessagesPosted,
		m.Follows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusRecordingWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecordingWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler records request timing and status code. Requests are
// labelled with the route template so /{username} stays one series.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &statusRecordingWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.RequestDuration.
			WithLabelValues(r.Method, RouteName(r), strconv.Itoa(rw.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

// RouteName returns the matched mux path template, or "unmatched".
func RouteName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
