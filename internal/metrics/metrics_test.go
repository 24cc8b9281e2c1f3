package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, endpoint, source string) float64 {
	t.Helper()
	var m dto.Metric
	if err := responsesTotal.WithLabelValues(endpoint, source).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRecordResponse(t *testing.T) {
	before := counterValue(t, "chat", "mock")

	RecordResponse("chat", "mock")
	RecordResponse("chat", "mock")

	if got := counterValue(t, "chat", "mock"); got != before+2 {
		t.Errorf("expected %v, got %v", before+2, got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordResponse("image", "mock-timeout")
	ObserveUpstream("chat_completion", "timeout", 30*time.Second)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	for _, want := range []string{
		`govassist_responses_total{endpoint="image",source="mock-timeout"}`,
		`govassist_upstream_request_duration_seconds_count{operation="chat_completion",outcome="timeout"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}
