package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 5*time.Millisecond)
	m.RecordTransition("validate", "rejected")
	m.SetSlotsAvailable("A", 42)
	m.RecordSimulatorStep("advanced")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/tickets", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("validate", "rejected")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.slotsAvailable.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.simulatorSteps.WithLabelValues("advanced")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordTransition("cancel", "ok")
		m.SetSlotsAvailable("A", 1)
		m.RecordSimulatorStep("idle")
		m.RecordError("/", "GET", "internal_error")
	})
}
