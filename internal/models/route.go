package models

// Direction is the direction of travel on a route. "West" means traveling
// toward the west terminal. The names denote direction of travel, not
// geography: a westbound sailing departs from the east terminal.
type Direction string

const (
	West Direction = "west"
	East Direction = "east"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == West {
		return East
	}
	return West
}

// SchedType identifies which of a route's timetables applies.
type SchedType string

const (
	Weekday SchedType = "weekday"
	Weekend SchedType = "weekend"
	Special SchedType = "special"
)

// Route describes one ferry crossing. Code is a unique bit flag, not a
// sequential index, so that alert bitmasks can be matched with a single AND.
// Times holds minutes-past-midnight departure lists per direction and
// schedule type, sorted ascending; entries past the 2:30am day boundary
// exceed 1440.
type Route struct {
	Code        int64                             `json:"code"`
	Terminals   map[Direction]int                 `json:"terminals"`
	DisplayName map[Direction]string              `json:"displayName"`
	Times       map[Direction]map[SchedType][]int `json:"times"`
}

// NewRoute builds a route with empty timetables.
func NewRoute(code int64, eastTerminal, westTerminal int, westName, eastName string) *Route {
	return &Route{
		Code: code,
		Terminals: map[Direction]int{
			West: westTerminal,
			East: eastTerminal,
		},
		DisplayName: map[Direction]string{
			West: westName,
			East: eastName,
		},
		Times: map[Direction]map[SchedType][]int{
			West: {},
			East: {},
		},
	}
}

// SetTimes replaces one timetable wholesale.
func (r *Route) SetTimes(dir Direction, sched SchedType, times []int) {
	r.Times[dir][sched] = times
}

// ClearTimes drops all timetables, returning the route to its
// schedule-less startup state.
func (r *Route) ClearTimes() {
	r.Times[West] = map[SchedType][]int{}
	r.Times[East] = map[SchedType][]int{}
}

// HasSpecial reports whether a special schedule is loaded for this route.
// Presence is checked on the west direction, matching how the schedule
// feed publishes specials.
func (r *Route) HasSpecial() bool {
	_, ok := r.Times[West][Special]
	return ok
}
