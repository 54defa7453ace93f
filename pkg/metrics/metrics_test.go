package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/pkg/metrics"
)

func TestRegistryHandler(t *testing.T) {
	reg := metrics.New("scribe_test")
	processed := reg.Counter("messages_processed_total", "Messages processed.", "stream")
	processed.WithLabelValues("general").Add(3)

	lag := reg.Gauge("watermark_lag_seconds", "Watermark lag.", "stream")
	lag.WithLabelValues("general").Set(42)

	reg.Histogram("batch_duration_seconds", "Batch duration.", nil, "stream").
		WithLabelValues("general").Observe(1.5)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`scribe_test_messages_processed_total{stream="general"} 3`,
		`scribe_test_watermark_lag_seconds{stream="general"} 42`,
		`scribe_test_batch_duration_seconds_count{stream="general"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
