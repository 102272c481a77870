package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("operation", "list"),
		attribute.String("customer_name", "Acme"),
		attribute.String("status_code", "200"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "customer_name" {
			t.Fatalf("customer_name must not be a metric label")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordStoreRequest(context.Background(), "list", 200, time.Millisecond)
	m.RecordStaleResponse(context.Background())
	m.RecordSave(context.Background(), "create", "ok")
	m.RecordExport(context.Background(), "pdf", "ok")
	m.RecordDelete(context.Background(), "ok")
	m.RecordInvoiceCreated(context.Background())
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "test"}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordSave(context.Background(), "create", "ok")
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	hm := NewHTTPMetrics(reg)

	again := NewHTTPMetrics(reg)
	assert.Same(t, hm.requests, again.requests)

	r := gin.New()
	r.Use(hm.GinMiddleware())
	r.GET("/api/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/invoices", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(hm.requests.WithLabelValues("GET", "/api/invoices", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(hm.inflight))
}
