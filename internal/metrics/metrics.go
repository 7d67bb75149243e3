// Package metrics provides Prometheus metrics for the tideline core.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// Feed metrics
	FeedSectionsTotal *prometheus.CounterVec
	FeedLinesSkipped  *prometheus.CounterVec
	AlertsLoaded      prometheus.Gauge

	// Alarm metrics
	AlarmsConfirmed prometheus.Counter
	AlarmsFired     prometheus.Counter
	AlarmsFiredLate prometheus.Counter

	// Settings store metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	// logger for error reporting
	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	// cancel stops the DB stats collector goroutine
	cancel context.CancelFunc

	// wg tracks the DB stats collector goroutine for graceful shutdown
	wg sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	feedSectionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tideline_feed_sections_total",
			Help: "Feed payload sections applied, by section header",
		},
		[]string{"section"},
	)

	feedLinesSkipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tideline_feed_lines_skipped_total",
			Help: "Malformed feed lines dropped during parsing, by reason",
		},
		[]string{"reason"},
	)

	alertsLoaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tideline_alerts_loaded",
		Help: "Number of service alerts in the current list",
	})

	alarmsConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tideline_alarms_confirmed_total",
		Help: "Leave-by alarms confirmed",
	})

	alarmsFired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tideline_alarms_fired_total",
		Help: "Leave-by alarms that fired on time",
	})

	alarmsFiredLate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tideline_alarms_fired_late_total",
		Help: "Alarms whose trigger was discovered after the fact",
	})

	dbConnectionsOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tideline_db_connections_open",
		Help: "Number of open settings-store connections",
	})

	dbConnectionsInUse := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tideline_db_connections_in_use",
		Help: "Number of settings-store connections currently in use",
	})

	dbConnectionsIdle := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tideline_db_connections_idle",
		Help: "Number of idle settings-store connections",
	})

	dbWaitSecondsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tideline_db_wait_seconds_total",
		Help: "Total time blocked waiting for a settings-store connection",
	})

	registry.MustRegister(
		feedSectionsTotal,
		feedLinesSkipped,
		alertsLoaded,
		alarmsConfirmed,
		alarmsFired,
		alarmsFiredLate,
		dbConnectionsOpen,
		dbConnectionsInUse,
		dbConnectionsIdle,
		dbWaitSecondsTotal,
	)

	return &Metrics{
		Registry:           registry,
		FeedSectionsTotal:  feedSectionsTotal,
		FeedLinesSkipped:   feedLinesSkipped,
		AlertsLoaded:       alertsLoaded,
		AlarmsConfirmed:    alarmsConfirmed,
		AlarmsFired:        alarmsFired,
		AlarmsFiredLate:    alarmsFiredLate,
		DBConnectionsOpen:  dbConnectionsOpen,
		DBConnectionsInUse: dbConnectionsInUse,
		DBConnectionsIdle:  dbConnectionsIdle,
		DBWaitSecondsTotal: dbWaitSecondsTotal,
		logger:             logger,
	}
}

// StartDBStatsCollector starts a goroutine that periodically collects
// connection pool statistics from the settings store and updates the
// corresponding metrics. This method is idempotent; call Shutdown() to
// stop the collector.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lastWaitDuration time.Duration

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in DB stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))
				m.DBConnectionsIdle.Set(float64(stats.Idle))

				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
// Safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
