package schedule

import (
	"tideline.pugetsound.org/internal/ftime"
	"tideline.pugetsound.org/internal/models"
)

// TodaysSchedule picks the timetable a route runs today: the special
// schedule if one is loaded, otherwise the clock's weekday/weekend type.
func (reg *Registry) TodaysSchedule(route *models.Route) models.SchedType {
	if route.HasSpecial() {
		return models.Special
	}
	return reg.times.ScheduleTypeForToday()
}

// FutureDepartures returns today's remaining departures in a direction,
// using the schedule TodaysSchedule selects.
func (reg *Registry) FutureDepartures(route *models.Route, dir models.Direction) []int {
	return reg.FutureDeparturesFor(route, dir, reg.TodaysSchedule(route))
}

// FutureDeparturesFor returns the entries of one timetable strictly after
// logical now, in their original ascending order. Empty when no timetable
// is loaded for the combination.
func (reg *Registry) FutureDeparturesFor(route *models.Route, dir models.Direction, sched models.SchedType) []int {
	now := reg.times.Now()
	var result []int
	for _, departure := range route.Times[dir][sched] {
		if departure > now {
			result = append(result, departure)
		}
	}
	return result
}

// BeforeNoon returns the timetable entries strictly before noon.
func (reg *Registry) BeforeNoon(route *models.Route, dir models.Direction, sched models.SchedType) []int {
	var result []int
	for _, departure := range route.Times[dir][sched] {
		if departure < ftime.Noon {
			result = append(result, departure)
		}
	}
	return result
}

// AfterNoon returns the timetable entries at or after noon.
func (reg *Registry) AfterNoon(route *models.Route, dir models.Direction, sched models.SchedType) []int {
	var result []int
	for _, departure := range route.Times[dir][sched] {
		if departure >= ftime.Noon {
			result = append(result, departure)
		}
	}
	return result
}

// TerminalTo returns the destination terminal for a direction of travel.
func (reg *Registry) TerminalTo(route *models.Route, dir models.Direction) (*models.Terminal, bool) {
	return reg.Terminal(route.Terminals[dir])
}

// TerminalFrom returns the departure terminal for a direction of travel.
// A westbound sailing departs from the east terminal, so the origin is
// keyed by the opposite direction.
func (reg *Registry) TerminalFrom(route *models.Route, dir models.Direction) (*models.Terminal, bool) {
	return reg.Terminal(route.Terminals[dir.Opposite()])
}

// GoodnessFor classifies a departure using logical now.
func (reg *Registry) GoodnessFor(route *models.Route, dir models.Direction, departure int) models.Goodness {
	return reg.GoodnessAt(route, dir, departure, reg.times.Now())
}

// GoodnessAt classifies a departure against an explicit now, using the
// travel time to the departure terminal and the user's buffer.
func (reg *Registry) GoodnessAt(route *models.Route, dir models.Direction, departure, now int) models.Goodness {
	origin, ok := reg.TerminalFrom(route, dir)
	if !ok {
		return models.GoodnessUnknown
	}
	travelTime, known := reg.TravelTime(origin.Code)
	return Classify(now, travelTime, known, reg.BufferMinutes(), departure)
}
