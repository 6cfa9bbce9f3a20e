package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/skellyview/pkg/store"
)

func newTestMetrics() *Metrics {
	return NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
}

func TestMetricsObserveChange(t *testing.T) {
	m := newTestMetrics()
	reg := store.NewRegistry(store.WithObserver(m))

	reg.Animation().SetFrameNumber(1)
	reg.Animation().SetFrameNumber(2)
	reg.Animation().SetFrameNumber(2)
	reg.Fetch().TriggerDataFetch("mediapipe")
	reg.Fetch().ResetFetchTracker()
	reg.Fetch().TriggerDataFetch("openpose")

	if got := testutil.ToFloat64(m.storeChanges.WithLabelValues("animation", "currentFrameNumber")); got != 2 {
		t.Errorf("frame changes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.storeChanges.WithLabelValues("fetch", "trackerToFetch")); got != 3 {
		t.Errorf("tracker changes = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.fetchTriggers); got != 2 {
		t.Errorf("fetch triggers = %v, want 2", got)
	}
}

func TestMetricsClients(t *testing.T) {
	m := newTestMetrics()
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	if got := testutil.ToFloat64(m.wsClients); got != 1 {
		t.Errorf("ws clients = %v, want 1", got)
	}
}

func TestMetricsMiddlewareAndHandler(t *testing.T) {
	m := newTestMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/stores/{name}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())

	for _, path := range []string{"/api/stores/animation", "/api/stores/fetch", "/api/stores/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/stores/{name}", "GET", "200")); got != 2 {
		t.Errorf("200 requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/stores/{name}", "GET", "404")); got != 1 {
		t.Errorf("404 requests = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_http_requests_total") {
		t.Error("/metrics output is missing test_http_requests_total")
	}
}

func TestDefaultRegistryIncludesRuntimeCollectors(t *testing.T) {
	m := NewMetrics()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "go_") {
			found = true
			break
		}
	}
	if !found {
		t.Error("default registry has no go_ collectors")
	}
}

func TestTraceMiddleware(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	r := chi.NewRouter()
	r.Use(Trace(WithTracerProvider(tp), WithTracerName("test")))
	r.Get("/api/stores/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stores/animation", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "GET /api/stores/{name}" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("successful request marked as error")
	}
	if spans[1].Status().Code != codes.Error {
		t.Error("500 response not marked as error")
	}
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "", "skellyview")
	if err != nil {
		t.Fatalf("SetupTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned %v", err)
	}
}
