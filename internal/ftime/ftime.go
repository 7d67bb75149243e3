// Package ftime implements the ferry-schedule notion of time. Times are
// minutes past midnight, but the day boundary sits at 2:30am to match how
// WSDOT publishes schedules: a 1:10am sailing belongs to the previous
// service day and is represented as 1510, not 70. Logical "now" therefore
// ranges 0-1589.
package ftime

import (
	"sync"
	"time"

	"tideline.pugetsound.org/internal/clock"
	"tideline.pugetsound.org/internal/models"
)

const (
	Noon     = 12 * 60
	Midnight = 24 * 60
	// MorningCutoff is 2:30am. Wall-clock times before it are attributed
	// to the prior service day.
	MorningCutoff = 150
)

// Service computes logical time from an injected clock. An override mode
// fixes (hour, minute, day-of-week) for deterministic computation; clearing
// the override resumes clock sampling.
type Service struct {
	mu        sync.Mutex
	clk       clock.Clock
	override  bool
	ovHour    int
	ovMinute  int
	ovDow     int
	schedType models.SchedType // memoized; empty when invalid
}

// NewService creates a Service backed by the given clock.
func NewService(clk clock.Clock) *Service {
	return &Service{clk: clk}
}

// SetOverride fixes the calendar (uncorrected) hour, minute and day-of-week
// (0=Sunday..6=Saturday). It invalidates the memoized schedule type.
func (s *Service) SetOverride(hour, minute, dayOfWeek int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = true
	s.ovHour = hour
	s.ovMinute = minute
	s.ovDow = dayOfWeek
	s.schedType = ""
}

// ClearOverride resumes wall-clock sampling.
func (s *Service) ClearOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = false
	s.schedType = ""
}

// sample returns calendar hour, minute and day-of-week, honoring any
// override. Caller must hold s.mu.
func (s *Service) sample() (hour, minute, dow int) {
	if s.override {
		return s.ovHour, s.ovMinute, s.ovDow
	}
	now := s.clk.Now()
	return now.Hour(), now.Minute(), int(now.Weekday())
}

// Now returns logical minutes past midnight for today's service day.
// Values past Midnight mean we are between midnight and the 2:30am cutoff.
func (s *Service) Now() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nowLocked()
}

func (s *Service) nowLocked() int {
	hour, minute, _ := s.sample()
	t := hour*60 + minute
	if t < MorningCutoff {
		return t + Midnight
	}
	return t
}

// DayOfWeek returns the logical day of week (0=Sunday..6=Saturday),
// shifted back one day while logical now is past Midnight.
func (s *Service) DayOfWeek() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, dow := s.sample()
	if s.nowLocked() > Midnight {
		return (dow + 6) % 7
	}
	return dow
}

// ScheduleTypeForToday reports whether today runs the weekday or weekend
// timetable. The result is memoized until the override changes or
// Invalidate is called.
func (s *Service) ScheduleTypeForToday() models.SchedType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedType == "" {
		_, _, dow := s.sample()
		if s.nowLocked() > Midnight {
			dow = (dow + 6) % 7
		}
		if dow >= 1 && dow <= 5 {
			s.schedType = models.Weekday
		} else {
			s.schedType = models.Weekend
		}
	}
	return s.schedType
}

// Invalidate drops the memoized schedule type. Call on day rollover.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedType = ""
}

// ToTime converts a logical minute value to an absolute wall-clock time,
// used to schedule the leave-by alarm. A value past Midnight lands on the
// next calendar day unless the wall clock has already crossed midnight.
func (s *Service) ToTime(t int) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	wall := s.clk.Now()
	now := s.nowLocked()

	hour := t / 60
	minute := t % 60
	day := wall
	if t >= Midnight {
		hour -= 24
		if now < Midnight {
			day = wall.AddDate(0, 0, 1)
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, wall.Location())
}
