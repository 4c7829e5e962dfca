package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestMiddleware wires Metrics and an in-memory span exporter so tests can
// inspect everything the middleware emits.
func newTestMiddleware(t *testing.T) (func(http.Handler) http.Handler, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return Middleware(m), reader, exp
}

func serve(mw func(http.Handler) http.Handler, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mw(h).ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareCorrelationHeader(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	var cid string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid = CorrelationID(r.Context())
	})

	rec := serve(mw, h, httptest.NewRequest("GET", "/v1/health", nil))

	if cid == "" {
		t.Fatal("handler saw no correlation ID in its context")
	}
	if len(cid) != 32 {
		t.Errorf("correlation ID length = %d, want 32 hex chars", len(cid))
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != cid {
		t.Errorf("X-Correlation-ID header = %q, want %q", got, cid)
	}
}

func TestMiddlewareContinuesIncomingTrace(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	var cid string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid = CorrelationID(r.Context())
	})

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest("GET", "/v1/validate", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")

	rec := serve(mw, h, req)

	if cid != traceID {
		t.Errorf("correlation ID = %q, want upstream trace ID %q", cid, traceID)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != traceID {
		t.Errorf("X-Correlation-ID header = %q, want %q", got, traceID)
	}
}

func TestMiddlewareSpanNameAndStatus(t *testing.T) {
	mw, _, exp := newTestMiddleware(t)

	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := serve(mw, h, httptest.NewRequest("GET", "/v1/stories", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("response status = %d, want 404", rec.Code)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "GET /v1/stories" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "GET /v1/stories")
	}

	found := false
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "http.response.status_code" && a.Value.AsInt64() == 404 {
			found = true
		}
	}
	if !found {
		t.Error("span missing http.response.status_code=404 attribute")
	}
}

func TestMiddlewareUsesMuxPatternForMetrics(t *testing.T) {
	mw, reader, exp := newTestMiddleware(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/stories/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve(mw, mux, httptest.NewRequest("GET", "/v1/stories/0b5e7c3a", nil))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, "readlark.http.request.duration")
	if met == nil {
		t.Fatal("request duration metric not recorded")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("metric data is %T, want Histogram[float64]", met.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("got %d data points, want 1", len(hist.DataPoints))
	}

	dp := hist.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("sample count = %d, want 1", dp.Count)
	}
	// The path attribute must be the route pattern, not the concrete URL,
	// or every story ID would mint a new time series.
	var path string
	for _, kv := range dp.Attributes.ToSlice() {
		if string(kv.Key) == "path" {
			path = kv.Value.AsString()
		}
	}
	if path != "/v1/stories/{id}" {
		t.Errorf("path attribute = %q, want %q", path, "/v1/stories/{id}")
	}

	// The span is renamed to the pattern too.
	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "GET /v1/stories/{id}" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "GET /v1/stories/{id}")
	}
}

func TestMiddlewareImplicitOK(t *testing.T) {
	mw, _, exp := newTestMiddleware(t)

	// Handler writes a body without ever calling WriteHeader.
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	serve(mw, h, httptest.NewRequest("GET", "/v1/health", nil))

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "http.response.status_code" && a.Value.AsInt64() != 200 {
			t.Errorf("status attribute = %d, want 200", a.Value.AsInt64())
		}
	}
}
