// Package alarm manages the single leave-by alarm: a small state machine
// with one confirmed alarm, one in-progress draft, and one outstanding
// trigger timer.
package alarm

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tideline.pugetsound.org/internal/clock"
	"tideline.pugetsound.org/internal/ftime"
	"tideline.pugetsound.org/internal/models"
)

// State is the planner's position in its lifecycle.
type State string

const (
	// Idle: no alarm and no draft.
	Idle State = "idle"
	// Drafting: a potential alarm is being edited. Canceling the edit
	// leaves any confirmed alarm untouched.
	Drafting State = "drafting"
	// Confirmed: one alarm is set and its trigger is scheduled.
	Confirmed State = "confirmed"
)

// EventKind distinguishes planner notifications.
type EventKind string

const (
	// EventDue fires when the leave-by time arrives.
	EventDue EventKind = "due"
	// EventLate fires when a trigger is discovered to be in the past,
	// e.g. after the app was suspended across the leave-by time.
	EventLate EventKind = "late"
)

// Event is delivered on the planner's event channel.
type Event struct {
	Kind  EventKind
	Alarm models.Alarm
}

const (
	// DefaultTravelTimeMinutes substitutes for an unknown travel time
	// when deriving a default leave-by.
	DefaultTravelTimeMinutes = 60
	// GraceMinutes keeps a derived leave-by at least this far in the
	// future so a freshly configured alarm is never already due.
	GraceMinutes = 5
)

// ErrNoDraft is returned by Confirm when no draft is being edited; the UI
// contract is that Confirm is only reachable from a configured draft.
var ErrNoDraft = errors.New("alarm: confirm without a configured draft")

// RouteInfo is the slice of the schedule registry the planner needs.
type RouteInfo interface {
	FindByCode(code int64) (*models.Route, bool)
	TerminalFrom(route *models.Route, dir models.Direction) (*models.Terminal, bool)
	TravelTime(terminalCode int) (int, bool)
	BufferMinutes() int
}

// Store persists the confirmed alarm across restarts.
type Store interface {
	Alarm() (*models.Alarm, error)
	SaveAlarm(alarm *models.Alarm) error
	DeleteAlarm() error
}

// Planner owns the alarm state machine. At most one alarm exists at a
// time; at most one timer is outstanding.
type Planner struct {
	mu      sync.Mutex
	times   *ftime.Service
	clk     clock.Clock
	routes  RouteInfo
	store   Store
	logger  *slog.Logger
	current *models.Alarm
	draft   *models.Alarm
	timer   *time.Timer
	events  chan Event
}

// NewPlanner creates an idle planner.
func NewPlanner(times *ftime.Service, clk clock.Clock, routes RouteInfo, store Store, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		times:  times,
		clk:    clk,
		routes: routes,
		store:  store,
		logger: logger.With(slog.String("component", "alarm")),
		events: make(chan Event, 4),
	}
}

// Events returns the channel carrying due/late notifications.
func (p *Planner) Events() <-chan Event {
	return p.events
}

// State reports the current lifecycle position. A draft takes precedence:
// while editing, the planner is Drafting even if a confirmed alarm exists
// underneath.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.draft != nil:
		return Drafting
	case p.current != nil:
		return Confirmed
	default:
		return Idle
	}
}

// Restore loads a persisted confirmed alarm at startup and re-arms its
// timer. A trigger already in the past is reported late and discarded.
func (p *Planner) Restore() error {
	if p.store == nil {
		return nil
	}
	saved, err := p.store.Alarm()
	if err != nil {
		return fmt.Errorf("restoring alarm: %w", err)
	}
	if saved == nil || !saved.IsSet {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if saved.TriggerAtMillis <= p.clk.NowUnixMilli() {
		p.emit(Event{Kind: EventLate, Alarm: *saved})
		return p.store.DeleteAlarm()
	}
	p.current = saved
	p.armLocked()
	return nil
}

// Configure starts editing an alarm for the given departure. If the
// confirmed alarm is for the same (route, direction, sailing) triple, the
// draft is a copy of it, so canceling reverts cleanly and confirming
// re-affirms it. Otherwise the draft starts fresh with no leave-by chosen.
func (p *Planner) Configure(routeID int64, dir models.Direction, ferryTime int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	proto := &models.Alarm{RouteID: routeID, Direction: dir, FerryTime: ferryTime}
	if proto.SameDeparture(p.current) {
		p.draft = p.current.Clone()
		return
	}
	p.draft = proto
}

// Draft returns a copy of the alarm being edited, or the confirmed alarm
// when no edit is in progress.
func (p *Planner) Draft() (models.Alarm, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draft != nil {
		return *p.draft, true
	}
	if p.current != nil {
		return *p.current, true
	}
	return models.Alarm{}, false
}

// LeaveBy returns the draft's leave-by time, deriving a default when none
// has been chosen: sailing time minus travel time (or 60 minutes when
// unknown) minus the buffer, and never closer than GraceMinutes from now.
func (p *Planner) LeaveBy() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	al := p.draft
	if al == nil {
		al = p.current
	}
	if al == nil {
		return 0, false
	}
	if al.HasLeaveBy {
		return al.LeaveByTime, true
	}

	lead := DefaultTravelTimeMinutes
	if route, ok := p.routes.FindByCode(al.RouteID); ok {
		if origin, ok := p.routes.TerminalFrom(route, al.Direction); ok {
			if tt, known := p.routes.TravelTime(origin.Code); known {
				lead = tt + p.routes.BufferMinutes()
			}
		}
	}

	leaveBy := al.FerryTime - lead
	if earliest := p.times.Now() + GraceMinutes; leaveBy < earliest {
		leaveBy = earliest
	}
	return leaveBy, true
}

// Confirm promotes the draft to the confirmed alarm, records its absolute
// trigger time, persists it, and re-arms the timer (replacing, never
// stacking, any previous one).
func (p *Planner) Confirm(leaveBy int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draft == nil {
		return ErrNoDraft
	}
	if p.draft.FerryTime == 0 {
		return fmt.Errorf("alarm: draft has no sailing time")
	}

	p.draft.LeaveByTime = leaveBy
	p.draft.HasLeaveBy = true
	p.draft.IsSet = true
	p.draft.TriggerAtMillis = p.times.ToTime(leaveBy).UnixMilli()
	p.current = p.draft
	p.draft = nil
	p.armLocked()

	if p.store != nil {
		if err := p.store.SaveAlarm(p.current); err != nil {
			return fmt.Errorf("persisting alarm: %w", err)
		}
	}
	p.logger.Info("alarm confirmed",
		slog.Int64("route", p.current.RouteID),
		slog.Int("leaveBy", p.current.LeaveByTime))
	return nil
}

// CancelEdit discards the draft only; a confirmed alarm is untouched.
func (p *Planner) CancelEdit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = nil
}

// Dismiss clears the confirmed alarm and cancels its pending trigger.
func (p *Planner) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

// CheckActive returns the confirmed alarm, or false when none exists. A
// confirmed alarm whose trigger time has already passed is reported via a
// late event and cleared; this catches triggers missed while suspended.
func (p *Planner) CheckActive() (models.Alarm, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || !p.current.IsSet {
		return models.Alarm{}, false
	}
	if p.current.TriggerAtMillis <= p.clk.NowUnixMilli() {
		p.emit(Event{Kind: EventLate, Alarm: *p.current})
		p.clearLocked()
		return models.Alarm{}, false
	}
	return *p.current, true
}

// Remaining returns the time until the confirmed alarm triggers; negative
// once overdue. False when no alarm is confirmed.
func (p *Planner) Remaining() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || !p.current.IsSet {
		return 0, false
	}
	millis := p.current.TriggerAtMillis - p.clk.NowUnixMilli()
	return time.Duration(millis) * time.Millisecond, true
}

// armLocked schedules the trigger for the current alarm, replacing any
// outstanding timer. Caller must hold p.mu.
func (p *Planner) armLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.current == nil {
		return
	}
	delay := time.Duration(p.current.TriggerAtMillis-p.clk.NowUnixMilli()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	p.timer = time.AfterFunc(delay, p.fire)
}

// fire delivers the due event and returns the planner to Idle.
func (p *Planner) fire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || !p.current.IsSet {
		return
	}
	p.emit(Event{Kind: EventDue, Alarm: *p.current})
	p.clearLocked()
}

// clearLocked drops the confirmed alarm, cancels the timer and removes
// the persisted copy. Caller must hold p.mu.
func (p *Planner) clearLocked() {
	p.current = nil
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.store != nil {
		if err := p.store.DeleteAlarm(); err != nil {
			p.logger.Warn("failed to delete persisted alarm", slog.String("error", err.Error()))
		}
	}
}

// emit delivers an event without blocking; a full channel drops the event
// with a log line rather than stalling the caller.
func (p *Planner) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("alarm event dropped", slog.String("kind", string(ev.Kind)))
	}
}
