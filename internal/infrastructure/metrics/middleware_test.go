package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/chishiki/chishiki/internal/entities"
)

// testExporter is a shared exporter instance for all tests to avoid
// duplicate Prometheus metric registration errors.
var (
	testExporter     *PrometheusExporter
	testExporterOnce sync.Once
)

func getTestExporter(collector *Collector) *PrometheusExporter {
	testExporterOnce.Do(func() {
		testExporter = NewPrometheusExporter(collector)
	})
	return testExporter
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, handler http.HandlerFunc, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle(method+" "+path, handler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	mw(mux).ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_RecordsRequest(t *testing.T) {
	collector := NewCollector()
	mw := Middleware(collector, nil)

	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	rec := serve(t, mw, handler, http.MethodGet, "/contents")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	httpMetrics := collector.GetHTTPMetrics()
	if count, ok := httpMetrics.RequestCounts["GET /contents"]; !ok || count != 1 {
		t.Errorf("expected request count 1 for GET /contents, got %d", count)
	}
}

func TestMiddleware_RecordsDuration(t *testing.T) {
	collector := NewCollector()
	mw := Middleware(collector, nil)

	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	serve(t, mw, handler, http.MethodGet, "/contents")

	httpMetrics := collector.GetHTTPMetrics()
	if _, ok := httpMetrics.TotalDurationSeconds["GET /contents"]; !ok {
		t.Error("expected duration to be recorded for GET /contents")
	}
}

func TestMiddleware_RecordsServerError(t *testing.T) {
	collector := NewCollector()
	mw := Middleware(collector, nil)

	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}

	rec := serve(t, mw, handler, http.MethodGet, "/contents")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	httpMetrics := collector.GetHTTPMetrics()
	if count, ok := httpMetrics.ErrorCounts["GET /contents"]; !ok || count != 1 {
		t.Errorf("expected error count 1 for GET /contents, got %d", count)
	}
}

func TestMiddleware_DenialIsNotAnError(t *testing.T) {
	collector := NewCollector()
	mw := Middleware(collector, nil)

	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}

	serve(t, mw, handler, http.MethodGet, "/contents")

	httpMetrics := collector.GetHTTPMetrics()
	if count, ok := httpMetrics.ErrorCounts["GET /contents"]; ok && count > 0 {
		t.Errorf("expected no error count for a 403 response, got %d", count)
	}
	if count := httpMetrics.RequestCounts["GET /contents"]; count != 1 {
		t.Errorf("expected request count 1, got %d", count)
	}
}

func TestMiddleware_ImplicitOKStatus(t *testing.T) {
	collector := NewCollector()
	mw := Middleware(collector, nil)

	// Handler writes a body without calling WriteHeader.
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}

	serve(t, mw, handler, http.MethodGet, "/contents")

	httpMetrics := collector.GetHTTPMetrics()
	if count, ok := httpMetrics.ErrorCounts["GET /contents"]; ok && count > 0 {
		t.Errorf("expected no error count for implicit 200, got %d", count)
	}
}

func TestMiddleware_MultipleRequests(t *testing.T) {
	collector := NewCollector()
	mw := Middleware(collector, nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux := http.NewServeMux()
	mux.Handle("GET /contents", handler)
	wrapped := mw(mux)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contents", nil))
	}

	httpMetrics := collector.GetHTTPMetrics()
	if count, ok := httpMetrics.RequestCounts["GET /contents"]; !ok || count != 5 {
		t.Errorf("expected request count 5, got %d", count)
	}
}

func TestMiddleware_WithPrometheusExporter(t *testing.T) {
	collector := NewCollector()
	exporter := getTestExporter(collector)
	mw := Middleware(collector, exporter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	serve(t, mw, handler, http.MethodGet, "/contents")

	httpMetrics := collector.GetHTTPMetrics()
	if count, ok := httpMetrics.RequestCounts["GET /contents"]; !ok || count != 1 {
		t.Errorf("expected request count 1, got %d", count)
	}
}

func TestCollector_RecordDecision(t *testing.T) {
	collector := NewCollector()

	collector.RecordDecision(entities.ActionView, entities.Allow)
	collector.RecordDecision(entities.ActionView, entities.Deny)
	collector.RecordDecision(entities.ActionEdit, entities.Deny)
	collector.RecordDecision(entities.ActionView, entities.Deny)

	counts := collector.GetDecisionCounts()
	if counts["view allow"] != 1 {
		t.Errorf("expected 1 view allow, got %d", counts["view allow"])
	}
	if counts["view deny"] != 2 {
		t.Errorf("expected 2 view denies, got %d", counts["view deny"])
	}
	if counts["edit deny"] != 1 {
		t.Errorf("expected 1 edit deny, got %d", counts["edit deny"])
	}
}

func TestPrometheusExporter_ObserveDecisionFeedsCollector(t *testing.T) {
	// The exporter is shared across tests, so assert on deltas against
	// whichever collector it was created with.
	exporter := getTestExporter(NewCollector())
	base := exporter.collector.GetDecisionCounts()

	exporter.ObserveDecision(entities.ActionDelete, entities.Allow)
	exporter.ObserveDecision(entities.ActionDelete, entities.Deny)
	exporter.ObserveDecision(entities.ActionDelete, entities.Deny)

	counts := exporter.collector.GetDecisionCounts()
	if counts["delete allow"]-base["delete allow"] != 1 {
		t.Errorf("expected 1 new allow, got %d", counts["delete allow"]-base["delete allow"])
	}
	if counts["delete deny"]-base["delete deny"] != 2 {
		t.Errorf("expected 2 new denies, got %d", counts["delete deny"]-base["delete deny"])
	}
}
