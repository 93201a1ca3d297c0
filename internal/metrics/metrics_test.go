package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_UsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/pastwork/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	for _, p := range []string{"/pastwork/1", "/pastwork/2", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/pastwork/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}

func TestDomain_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDomain(reg)

	d.MessageReceived()
	d.MessageReceived()
	d.ContentChanged("pastwork", "create")
	d.JobProcessed("message.notify", "done")
	d.Login("failure")

	assert.Equal(t, 2.0, testutil.ToFloat64(d.MessagesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.ContentChanges.WithLabelValues("pastwork", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.JobsProcessed.WithLabelValues("message.notify", "done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.LoginAttempts.WithLabelValues("failure")))
}

func TestDomain_NilIsNoop(t *testing.T) {
	var d *Domain
	assert.NotPanics(t, func() {
		d.MessageReceived()
		d.ContentChanged("about", "delete")
		d.JobProcessed("x", "done")
		d.Login("success")
	})
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewDomain(reg).MessageReceived()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "portfolio_messages_received_total 1"), body)
	assert.Contains(t, body, "go_goroutines")
}
