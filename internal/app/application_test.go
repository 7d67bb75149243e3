package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tideline.pugetsound.org/internal/appconf"
	"tideline.pugetsound.org/internal/clock"
	"tideline.pugetsound.org/internal/ftime"
	"tideline.pugetsound.org/internal/models"
)

const samplePayload = "#schedule 2026.03.10\n" +
	"bainbridge,wd,500,600,1000\n" +
	"bremerton,wd,520,640\n" +
	"#traveltimes\n" +
	"7:25\n" +
	"#allalerts\n" +
	"__ a-01 1\nBainbridge sailing delayed.\n" +
	"#done"

func newTestApp(t *testing.T) (*Application, *clock.MockClock) {
	t.Helper()
	cfg, err := appconf.Load("", appconf.Test)
	require.NoError(t, err)

	// Tuesday 9:10am, logical 550.
	clk := clock.NewMockClock(time.Date(2026, 3, 10, 9, 10, 0, 0, time.Local))
	app, err := NewApplication(cfg, clk, nil)
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)
	return app, clk
}

func TestNewApplication_Defaults(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, "12:00", app.Formatter.Display(720))
	assert.Equal(t, 15, app.Registry.BufferMinutes())
	assert.Len(t, app.Registry.DisplayRoutes(), 11)
	assert.Empty(t, app.CacheDate())
}

func TestApplication_ApplyUpdate(t *testing.T) {
	app, _ := newTestApp(t)
	require.NoError(t, app.ApplyUpdate(samplePayload))

	bainbridge, ok := app.Registry.Find("bainbridge")
	require.True(t, ok)
	assert.Equal(t, []int{600, 1000}, app.Registry.FutureDepartures(bainbridge, models.West))

	// Travel times landed: westbound bainbridge departs Seattle (7).
	minutes, known := app.Registry.TravelTime(7)
	require.True(t, known)
	assert.Equal(t, 25, minutes)

	// The alert is live and unread.
	assert.Equal(t, models.AlertsUnread, app.Alerts.HasAlerts(bainbridge))

	assert.Equal(t, "2026.03.10", app.CacheDate())
}

func TestApplication_ApplyUpdate_ReplacesSchedule(t *testing.T) {
	app, _ := newTestApp(t)
	require.NoError(t, app.ApplyUpdate(samplePayload))
	require.NoError(t, app.ApplyUpdate("#schedule 2026.03.17\nbremerton,wd,900\n#done"))

	// A new schedule section clears everything first.
	bainbridge, _ := app.Registry.Find("bainbridge")
	assert.Empty(t, app.Registry.FutureDepartures(bainbridge, models.West))
	bremerton, _ := app.Registry.Find("bremerton")
	assert.Equal(t, []int{900}, app.Registry.FutureDepartures(bremerton, models.West))
	assert.Equal(t, "2026.03.17", app.CacheDate())
}

func TestApplication_ApplyUpdate_SpecialSectionAddsWithoutClearing(t *testing.T) {
	app, _ := newTestApp(t)
	require.NoError(t, app.ApplyUpdate(samplePayload))
	require.NoError(t, app.ApplyUpdate("#special\nbainbridge,ws,700,800\n#done"))

	bainbridge, _ := app.Registry.Find("bainbridge")
	assert.Equal(t, models.Special, app.Registry.TodaysSchedule(bainbridge))
	// The weekday timetable is still loaded underneath.
	assert.Equal(t, []int{600, 1000},
		app.Registry.FutureDeparturesFor(bainbridge, models.West, models.Weekday))
}

func TestApplication_StateSurvivesRestart(t *testing.T) {
	cfg, err := appconf.Load("", appconf.Test)
	require.NoError(t, err)
	cfg.DBPath = "file::memory:?cache=shared"

	clk := clock.NewMockClock(time.Date(2026, 3, 10, 9, 10, 0, 0, time.Local))
	first, err := NewApplication(cfg, clk, nil)
	require.NoError(t, err)

	require.NoError(t, first.ApplyUpdate(samplePayload))
	require.NoError(t, first.SetTimeFormat(ftime.Format24))
	require.NoError(t, first.SetBufferMinutes(25))
	require.NoError(t, first.SetDisplaySet([]int64{1, 1 << 8}))

	first.Planner.Configure(1, models.West, 1000)
	require.NoError(t, first.ConfirmAlarm(950))
	first.Metrics.Shutdown()

	// A second application over the same database picks everything up.
	second, err := NewApplication(cfg, clk, nil)
	require.NoError(t, err)
	t.Cleanup(second.Shutdown)
	t.Cleanup(func() { _ = first.Store.Close() })

	assert.Equal(t, "09:10", second.Formatter.Display(550))
	assert.Equal(t, 25, second.Registry.BufferMinutes())
	assert.Len(t, second.Registry.DisplayRoutes(), 2)

	// The cached schedule was replayed from the store.
	bainbridge, _ := second.Registry.Find("bainbridge")
	assert.Equal(t, []int{600, 1000}, second.Registry.FutureDepartures(bainbridge, models.West))

	active, ok := second.Planner.CheckActive()
	require.True(t, ok)
	assert.Equal(t, 950, active.LeaveByTime)
}

func TestApplication_AllowRefresh(t *testing.T) {
	app, _ := newTestApp(t)

	assert.True(t, app.AllowRefresh())
	assert.False(t, app.AllowRefresh(), "second refresh inside the interval is refused")
}
