package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/densecode/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("channel-a", "POST", "/v1/transmit", 200, 12*time.Millisecond)
	RecordTransmission("ideal", "ok", 3*time.Millisecond)
	RecordPacketCall("ideal", nil)
	RecordPacketCall("ideal", errors.New("boom"))
	ObserveFidelity("ideal", "per_bit", 0.75)

	if got := testutil.ToFloat64(packetCalls.WithLabelValues("ideal", "error")); got < 1 {
		t.Fatalf("expected error packet call to be counted, got %v", got)
	}
}
