// Package feed parses the text payloads served to the app: departure
// timetables, terminal travel times, and the sectioned reply envelope that
// carries them. Parsing is defensive throughout; a malformed line is
// dropped and counted, never fatal, because partial schedule data is more
// useful than none.
package feed

import (
	"log/slog"
	"strconv"
	"strings"

	"tideline.pugetsound.org/internal/metrics"
	"tideline.pugetsound.org/internal/models"
	"tideline.pugetsound.org/internal/schedule"
)

// Section is one chunk of a reply payload. Headers look like
// "schedule 2026.03.10", "special", "traveltimes", "allalerts" or "done".
type Section struct {
	Header string
	Body   string
}

// SplitSections breaks a reply payload on lines beginning with '#'.
func SplitSections(text string) []Section {
	chunks := strings.Split(text, "\n#")
	if len(chunks) > 0 && strings.HasPrefix(chunks[0], "#") {
		chunks[0] = chunks[0][1:]
	}
	sections := make([]Section, 0, len(chunks))
	for _, chunk := range chunks {
		header, body, _ := strings.Cut(chunk, "\n")
		header = strings.TrimSpace(header)
		if header == "" && body == "" {
			continue
		}
		sections = append(sections, Section{Header: header, Body: body})
	}
	return sections
}

// Loader applies feed text to the schedule registry.
type Loader struct {
	registry *schedule.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewLoader creates a Loader. Metrics may be nil.
func NewLoader(registry *schedule.Registry, m *metrics.Metrics, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		registry: registry,
		metrics:  m,
		logger:   logger.With(slog.String("component", "feed")),
	}
}

// LoadSchedule applies a schedule blob. Each line is
// <routeNameOrCode>,<w|e><d|e|s>,<t1>,<t2>,... with times in logical
// minutes past midnight. Lines starting with '/' are comments.
func (l *Loader) LoadSchedule(text string) {
	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if len(line) <= 2 || line[0] == '/' {
			continue
		}
		l.loadScheduleLine(line)
	}
}

func (l *Loader) loadScheduleLine(line string) {
	tokens := strings.Split(line, ",")
	if len(tokens) < 2 || len(tokens[1]) < 2 {
		l.skip("bad_line", line, "unparseable schedule line")
		return
	}

	route, ok := l.registry.Find(tokens[0])
	if !ok {
		l.skip("bad_route", line, "unknown route in schedule line")
		return
	}

	key := tokens[1]
	dir := models.East
	if key[0] == 'w' {
		dir = models.West
	}
	sched := models.Weekday
	switch key[1] {
	case 'e':
		sched = models.Weekend
	case 's':
		sched = models.Special
	}

	times := make([]int, 0, len(tokens)-2)
	for _, token := range tokens[2:] {
		t, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			l.skip("bad_time", line, "non-numeric departure time")
			return
		}
		times = append(times, t)
	}
	l.registry.SetRouteTimes(route, dir, sched, times)
}

// LoadTravelTimes applies a travel-time blob of <terminalCode>:<minutes>
// lines.
func (l *Loader) LoadTravelTimes(text string) {
	l.registry.ClearTravelTimes()
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		codeStr, minutesStr, ok := strings.Cut(line, ":")
		if !ok {
			l.skip("bad_travel_line", line, "unparseable travel-time line")
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(codeStr))
		if err != nil {
			l.skip("bad_terminal", line, "non-numeric terminal code")
			continue
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(minutesStr))
		if err != nil {
			l.skip("bad_travel_time", line, "non-numeric travel time")
			continue
		}
		l.registry.SetTravelTime(code, minutes)
	}
}

func (l *Loader) skip(reason, line, msg string) {
	l.logger.Warn(msg, slog.String("line", line))
	if l.metrics != nil {
		l.metrics.FeedLinesSkipped.WithLabelValues(reason).Inc()
	}
}
