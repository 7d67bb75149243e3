// Package app wires the tideline components together and applies feed
// payloads to them.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tideline.pugetsound.org/internal/alarm"
	"tideline.pugetsound.org/internal/alerts"
	"tideline.pugetsound.org/internal/appconf"
	"tideline.pugetsound.org/internal/clock"
	"tideline.pugetsound.org/internal/feed"
	"tideline.pugetsound.org/internal/ftime"
	"tideline.pugetsound.org/internal/geo"
	"tideline.pugetsound.org/internal/logging"
	"tideline.pugetsound.org/internal/metrics"
	"tideline.pugetsound.org/internal/schedule"
	"tideline.pugetsound.org/internal/store"
)

// Application holds the dependencies for the CLI commands and the update
// loop. Everything hangs off one instance so tests can assemble a complete
// app against an in-memory store.
type Application struct {
	Config    appconf.Config
	Logger    *slog.Logger
	Clock     clock.Clock
	Times     *ftime.Service
	Formatter *ftime.Formatter
	Registry  *schedule.Registry
	Alerts    *alerts.Manager
	Planner   *alarm.Planner
	Store     *store.Store
	Metrics   *metrics.Metrics
	Terminals *geo.Index

	loader  *feed.Loader
	limiter *rate.Limiter
}

// NewApplication assembles the full component graph, replays persisted
// settings and the cached schedule, and restores any confirmed alarm.
func NewApplication(cfg appconf.Config, clk clock.Clock, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}

	m := metrics.NewWithLogger(logger)
	m.StartDBStatsCollector(st.DB(), time.Minute)

	times := ftime.NewService(clk)
	registry := schedule.NewRegistry(times, clk)

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Clock:     clk,
		Times:     times,
		Registry:  registry,
		Alerts:    alerts.NewManager(st, logger),
		Planner:   alarm.NewPlanner(times, clk, registry, st, logger),
		Store:     st,
		Metrics:   m,
		Terminals: geo.NewIndex(registry.Terminals()),
		loader:    feed.NewLoader(registry, m, logger),
	}

	refresh := cfg.RefreshSeconds
	if refresh <= 0 {
		refresh = 1
	}
	app.limiter = rate.NewLimiter(rate.Every(time.Duration(refresh)*time.Second), 1)

	if err := app.restoreState(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

// restoreState replays everything the store remembers: settings, the
// display set, the cached schedule, and the confirmed alarm.
func (app *Application) restoreState() error {
	format, err := app.Store.TimeFormat(string(ftime.Format12))
	if err != nil {
		return fmt.Errorf("restoring settings: %w", err)
	}
	app.Formatter = ftime.NewFormatter(ftime.TimeFormat(format))

	buffer, err := app.Store.BufferMinutes(app.Config.BufferMinutes)
	if err != nil {
		return fmt.Errorf("restoring settings: %w", err)
	}
	app.Registry.SetBufferMinutes(buffer)

	codes, customized, err := app.Store.DisplaySet()
	if err != nil {
		return fmt.Errorf("restoring display set: %w", err)
	}
	if customized {
		app.Registry.SetDisplaySet(codes)
	}

	cacheDate, payload, ok, err := app.Store.ScheduleCache()
	if err != nil {
		return fmt.Errorf("restoring schedule cache: %w", err)
	}
	if ok {
		app.loader.LoadSchedule(payload)
		app.Logger.Info("replayed cached schedule", slog.String("cacheDate", cacheDate))
	}

	if err := app.Planner.Restore(); err != nil {
		return err
	}
	return nil
}

// CacheDate returns the date stamp of the cached schedule, or empty when
// nothing is cached.
func (app *Application) CacheDate() string {
	cacheDate, _, ok, err := app.Store.ScheduleCache()
	if err != nil || !ok {
		return ""
	}
	return cacheDate
}

// AllowRefresh reports whether enough time has passed since the last feed
// refresh. Callers skip the refresh entirely when it returns false.
func (app *Application) AllowRefresh() bool {
	return app.limiter.Allow()
}

// ApplyUpdate dispatches a reply payload section by section. Unknown
// sections are skipped; the payload's own "done" marker is not required.
func (app *Application) ApplyUpdate(text string) error {
	for _, section := range feed.SplitSections(text) {
		name, arg, _ := strings.Cut(section.Header, " ")
		app.Metrics.FeedSectionsTotal.WithLabelValues(name).Inc()

		switch name {
		case "schedule":
			app.Registry.ClearAllTimes()
			app.loader.LoadSchedule(section.Body)
			if err := app.Store.SaveScheduleCache(arg, section.Body); err != nil {
				return err
			}
		case "special":
			app.loader.LoadSchedule(section.Body)
		case "traveltimes":
			app.loader.LoadTravelTimes(section.Body)
		case "allalerts":
			if err := app.Alerts.LoadAlerts(section.Body); err != nil {
				return err
			}
			app.Metrics.AlertsLoaded.Set(float64(len(app.Alerts.All())))
		case "done":
		default:
			app.Logger.Warn("unknown feed section", slog.String("header", section.Header))
		}
	}
	app.Times.Invalidate()
	return nil
}

// SetTimeFormat updates the formatter and persists the choice.
func (app *Application) SetTimeFormat(format ftime.TimeFormat) error {
	app.Formatter.SetFormat(format)
	return app.Store.SetTimeFormat(string(format))
}

// SetBufferMinutes updates the dock buffer and persists the choice.
func (app *Application) SetBufferMinutes(minutes int) error {
	app.Registry.SetBufferMinutes(minutes)
	return app.Store.SetBufferMinutes(minutes)
}

// SetDisplaySet updates the displayed routes and persists the choice.
func (app *Application) SetDisplaySet(codes []int64) error {
	app.Registry.SetDisplaySet(codes)
	return app.Store.SetDisplaySet(app.Registry.DisplaySet())
}

// PumpAlarmEvents consumes planner events until the context ends, counting
// them and logging each. Run it in its own goroutine.
func (app *Application) PumpAlarmEvents(ctx context.Context) {
	logger := logging.ForComponent("alarm_events")
	for {
		select {
		case ev := <-app.Planner.Events():
			switch ev.Kind {
			case alarm.EventDue:
				app.Metrics.AlarmsFired.Inc()
			case alarm.EventLate:
				app.Metrics.AlarmsFiredLate.Inc()
			}
			logger.Info("alarm event",
				slog.String("kind", string(ev.Kind)),
				slog.Int64("route", ev.Alarm.RouteID),
				slog.Int("leaveBy", ev.Alarm.LeaveByTime))
		case <-ctx.Done():
			return
		}
	}
}

// ConfirmAlarm confirms the drafted alarm at the given leave-by time and
// counts it.
func (app *Application) ConfirmAlarm(leaveBy int) error {
	if err := app.Planner.Confirm(leaveBy); err != nil {
		return err
	}
	app.Metrics.AlarmsConfirmed.Inc()
	return nil
}

// Shutdown releases the store and stops background collectors.
func (app *Application) Shutdown() {
	app.Metrics.Shutdown()
	logging.SafeCloseWithLogging(app.Store, app.Logger, "settings store")
}
