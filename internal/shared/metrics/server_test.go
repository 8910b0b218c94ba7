package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandler_Healthz(t *testing.T) {
	tests := []struct {
		name   string
		health HealthFunc
		want   int
	}{
		{"nil health", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"unhealthy", func(context.Context) error { return errors.New("mongo down") }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handler(tt.health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNewIngest_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngest(reg)
	m.Lines.WithLabelValues("processed").Add(3)

	if got := testutil.ToFloat64(m.Lines.WithLabelValues("processed")); got != 3 {
		t.Errorf("processed = %v, want 3", got)
	}
}

func TestStartMetricsServer_EmptyPort(t *testing.T) {
	if srv := StartMetricsServer("", nil); srv != nil {
		t.Errorf("expected nil server for empty port")
	}
}
