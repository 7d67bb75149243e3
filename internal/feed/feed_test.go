package feed

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tideline.pugetsound.org/internal/clock"
	"tideline.pugetsound.org/internal/ftime"
	"tideline.pugetsound.org/internal/metrics"
	"tideline.pugetsound.org/internal/models"
	"tideline.pugetsound.org/internal/schedule"
)

// A real WSDOT-style fragment, with comment lines.
const scheduleFragment = "// this is part of a real schedule\n" +
	"// with some times removed to make the lengths different\n" +
	"pt townsend,wd,840,885,930,975,1080,1170,1270\n" +
	"pt townsend,we,435,525,705,750,795,840,885,930,975,1020,1080,1170,1270\n" +
	"pt townsend,ed,390,480,525,570,750,795\n" +
	"pt townsend,ee,390,480,660,705,750,795,975,1035,1125,1230\n" +
	"southworth-fauntleroy,ed,265,300,360,400,475,500\n"

func newTestLoader(t *testing.T) (*Loader, *schedule.Registry, *ftime.Service, *metrics.Metrics) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2026, 3, 10, 9, 10, 0, 0, time.Local))
	times := ftime.NewService(clk)
	reg := schedule.NewRegistry(times, clk)
	m := metrics.New()
	return NewLoader(reg, m, nil), reg, times, m
}

func TestLoader_LoadSchedule(t *testing.T) {
	l, reg, _, _ := newTestLoader(t)
	l.LoadSchedule(scheduleFragment)

	ptTownsend, ok := reg.Find("pt townsend")
	require.True(t, ok)
	assert.Len(t, ptTownsend.Times[models.West][models.Weekday], 7)
	assert.Len(t, ptTownsend.Times[models.West][models.Weekend], 13)
	assert.Len(t, ptTownsend.Times[models.East][models.Weekday], 6)
	assert.Len(t, ptTownsend.Times[models.East][models.Weekend], 10)

	// The alias resolves to the same route either direction.
	faunt, ok := reg.Find("fauntleroy-southworth")
	require.True(t, ok)
	assert.Len(t, faunt.Times[models.East][models.Weekday], 6)
}

func TestLoader_LoadSchedule_RoundTrip(t *testing.T) {
	l, reg, times, _ := newTestLoader(t)
	l.LoadSchedule("bainbridge,wd,500,600\n")

	times.SetOverride(9, 10, 2) // logical 550, Tuesday
	bainbridge, _ := reg.Find("bainbridge")
	assert.Equal(t, []int{600}, reg.FutureDeparturesFor(bainbridge, models.West, models.Weekday))
}

func TestLoader_LoadSchedule_SpecialSection(t *testing.T) {
	l, reg, _, _ := newTestLoader(t)
	l.LoadSchedule("bremerton,ws,400,500\n")

	bremerton, _ := reg.Find("bremerton")
	assert.Equal(t, models.Special, reg.TodaysSchedule(bremerton))
}

func TestLoader_LoadSchedule_DropsMalformedLines(t *testing.T) {
	l, reg, _, m := newTestLoader(t)
	l.LoadSchedule("no such route,wd,100,200\n" +
		"bainbridge,wd,100,banana,300\n" +
		"bainbridge,we,700,800\n")

	bainbridge, _ := reg.Find("bainbridge")
	// The bad lines are dropped; the good one still lands.
	assert.Empty(t, bainbridge.Times[models.West][models.Weekday])
	assert.Equal(t, []int{700, 800}, bainbridge.Times[models.West][models.Weekend])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedLinesSkipped.WithLabelValues("bad_route")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedLinesSkipped.WithLabelValues("bad_time")))
}

func TestLoader_LoadTravelTimes(t *testing.T) {
	l, reg, _, _ := newTestLoader(t)
	l.LoadTravelTimes("7:25\n3:40\nnot-a-line\n99:10\n")

	minutes, ok := reg.TravelTime(7)
	require.True(t, ok)
	assert.Equal(t, 25, minutes)

	minutes, ok = reg.TravelTime(3)
	require.True(t, ok)
	assert.Equal(t, 40, minutes)

	// Unknown terminal codes are ignored.
	_, ok = reg.TravelTime(99)
	assert.False(t, ok)
}

func TestLoader_LoadTravelTimes_ReplacesPreviousBatch(t *testing.T) {
	l, reg, _, _ := newTestLoader(t)
	l.LoadTravelTimes("7:25\n")
	l.LoadTravelTimes("3:40\n")

	_, ok := reg.TravelTime(7)
	assert.False(t, ok, "a new batch clears terminals it does not mention")
	_, ok = reg.TravelTime(3)
	assert.True(t, ok)
}

func TestSplitSections(t *testing.T) {
	payload := "#schedule 2026.03.10\n" +
		"bainbridge,wd,500,600\n" +
		"#traveltimes\n" +
		"7:25\n" +
		"#allalerts\n" +
		"__ a-01 1\nbody\n" +
		"#done"

	sections := SplitSections(payload)
	require.Len(t, sections, 4)
	assert.Equal(t, "schedule 2026.03.10", sections[0].Header)
	assert.Equal(t, "bainbridge,wd,500,600", sections[0].Body)
	assert.Equal(t, "traveltimes", sections[1].Header)
	assert.Equal(t, "allalerts", sections[2].Header)
	assert.Equal(t, "__ a-01 1\nbody", sections[2].Body)
	assert.Equal(t, "done", sections[3].Header)
	assert.Empty(t, sections[3].Body)
}

func TestSplitSections_Empty(t *testing.T) {
	assert.Empty(t, SplitSections(""))
}
