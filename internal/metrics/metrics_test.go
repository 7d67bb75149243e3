package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllMetrics(t *testing.T) {
	m := New()
	require.NotNil(t, m.Registry)

	m.FeedSectionsTotal.WithLabelValues("schedule").Inc()
	m.FeedLinesSkipped.WithLabelValues("bad_route").Inc()
	m.AlertsLoaded.Set(3)
	m.AlarmsConfirmed.Inc()
	m.AlarmsFired.Inc()
	m.AlarmsFiredLate.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedSectionsTotal.WithLabelValues("schedule")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedLinesSkipped.WithLabelValues("bad_route")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AlertsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlarmsFired))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.AlarmsConfirmed.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.AlarmsConfirmed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AlarmsConfirmed))
}

func TestMetrics_ShutdownWithoutCollector(t *testing.T) {
	m := New()
	// Shutdown with no collector started must not block or panic.
	m.Shutdown()
	m.Shutdown()
}

func TestMetrics_StartDBStatsCollector_NilDB(t *testing.T) {
	m := New()
	m.StartDBStatsCollector(nil, 0)
	m.Shutdown()
}
