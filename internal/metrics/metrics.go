package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Domain holds counters for portfolio events.
type Domain struct {
	MessagesReceived prometheus.Counter
	ContentChanges   *prometheus.CounterVec
	JobsProcessed    *prometheus.CounterVec
	LoginAttempts    *prometheus.CounterVec
}

// NewDomain creates and registers the domain counters on reg.
func NewDomain(reg prometheus.Registerer) *Domain {
	d := &Domain{
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Contact messages stored.",
		}),
		ContentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_changes_total",
			Help:      "Content writes by entity and action.",
		}, []string{"entity", "action"}),
		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Background job runs by type and resulting status.",
		}, []string{"type", "status"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(d.MessagesReceived, d.ContentChanges, d.JobsProcessed, d.LoginAttempts)
	return d
}

// ContentChanged records a create, update or delete of entity.
func (d *Domain) ContentChanged(entity, action string) {
	if d == nil {
		return
	}
	d.ContentChanges.WithLabelValues(entity, action).Inc()
}

// MessageReceived records a stored contact message.
func (d *Domain) MessageReceived() {
	if d == nil {
		return
	}
	d.MessagesReceived.Inc()
}

// JobProcessed matches the worker pool's outcome callback.
func (d *Domain) JobProcessed(jobType, status string) {
	if d == nil {
		return
	}
	d.JobsProcessed.WithLabelValues(jobType, status).Inc()
}

// Login records a login attempt with result "success" or "failure".
func (d *Domain) Login(result string) {
	if d == nil {
		return
	}
	d.LoginAttempts.WithLabelValues(result).Inc()
}
