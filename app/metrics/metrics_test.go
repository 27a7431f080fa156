package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.DeliveryAttemptsTotal.WithLabelValues("sent").Add(2)
	m.OccurrencesTotal.WithLabelValues("finished").Inc()
	m.ScheduledTotal.Inc()

	if got := testutil.ToFloat64(m.DeliveryAttemptsTotal.WithLabelValues("sent")); got != 2 {
		t.Fatalf("expected 2 sent attempts, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`mailings_delivery_attempts_total{result="sent"} 2`,
		`mailings_occurrences_total{outcome="finished"} 1`,
		"mailings_scheduled_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
