// Package schedule holds the route and terminal registries and the
// time-goodness classifier. The registries own all mutable schedule state;
// routes and terminals themselves stay plain data.
package schedule

import (
	"strconv"
	"sync"
	"time"

	"tideline.pugetsound.org/internal/clock"
	"tideline.pugetsound.org/internal/ftime"
	"tideline.pugetsound.org/internal/models"
)

// DefaultBufferMinutes is the buffer applied between arrival at the dock
// and the sailing when the user has not chosen one.
const DefaultBufferMinutes = 15

// MaxTravelTimeAge is how long a loaded travel-time batch stays usable.
// Older readings revert terminals to the unknown state.
const MaxTravelTimeAge = 5 * time.Minute

// Registry owns the fixed route/terminal tables plus the user-dependent
// state layered on them: timetables, the display set, travel times and the
// buffer setting.
type Registry struct {
	mu             sync.Mutex
	times          *ftime.Service
	clk            clock.Clock
	routes         []*models.Route
	terminals      map[int]*models.Terminal
	display        map[int64]bool
	travel         map[int]int
	travelLoadedAt time.Time
	bufferMinutes  int
}

// NewRegistry builds a registry with the canonical WSF routes and
// terminals, all routes displayed, and no timetables loaded.
func NewRegistry(times *ftime.Service, clk clock.Clock) *Registry {
	reg := &Registry{
		times:         times,
		clk:           clk,
		routes:        canonicalRoutes(),
		terminals:     canonicalTerminals(),
		display:       make(map[int64]bool),
		travel:        make(map[int]int),
		bufferMinutes: DefaultBufferMinutes,
	}
	for _, route := range reg.routes {
		reg.display[route.Code] = true
	}
	return reg
}

// AllRoutes returns every route in canonical order.
func (reg *Registry) AllRoutes() []*models.Route {
	return reg.routes
}

// Find resolves a route by either direction's display name or by its
// numeric code. The same route is returned whichever name is used.
func (reg *Registry) Find(nameOrCode string) (*models.Route, bool) {
	code, err := strconv.ParseInt(nameOrCode, 10, 64)
	byCode := err == nil
	for _, route := range reg.routes {
		if route.DisplayName[models.West] == nameOrCode ||
			route.DisplayName[models.East] == nameOrCode ||
			(byCode && route.Code == code) {
			return route, true
		}
	}
	return nil, false
}

// FindByCode resolves a route by its bit code.
func (reg *Registry) FindByCode(code int64) (*models.Route, bool) {
	for _, route := range reg.routes {
		if route.Code == code {
			return route, true
		}
	}
	return nil, false
}

// Terminal resolves a terminal by code.
func (reg *Registry) Terminal(code int) (*models.Terminal, bool) {
	term, ok := reg.terminals[code]
	return term, ok
}

// Terminals returns the terminal table keyed by code.
func (reg *Registry) Terminals() map[int]*models.Terminal {
	return reg.terminals
}

// ClearAllTimes drops every loaded timetable.
func (reg *Registry) ClearAllTimes() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, route := range reg.routes {
		route.ClearTimes()
	}
}

// SetRouteTimes replaces one timetable wholesale.
func (reg *Registry) SetRouteTimes(route *models.Route, dir models.Direction, sched models.SchedType, times []int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	route.SetTimes(dir, sched, times)
}

// IsDisplayed reports display-set membership for a route code.
func (reg *Registry) IsDisplayed(code int64) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.display[code]
}

// SetDisplayed adds or removes a route from the display set.
func (reg *Registry) SetDisplayed(code int64, on bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if on {
		reg.display[code] = true
	} else {
		delete(reg.display, code)
	}
}

// DisplayRoutes returns the user-selected routes in canonical order.
func (reg *Registry) DisplayRoutes() []*models.Route {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	result := make([]*models.Route, 0, len(reg.routes))
	for _, route := range reg.routes {
		if reg.display[route.Code] {
			result = append(result, route)
		}
	}
	return result
}

// DisplaySet returns the displayed route codes in canonical order, for
// persistence.
func (reg *Registry) DisplaySet() []int64 {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	codes := make([]int64, 0, len(reg.display))
	for _, route := range reg.routes {
		if reg.display[route.Code] {
			codes = append(codes, route.Code)
		}
	}
	return codes
}

// SetDisplaySet replaces the display set, ignoring unknown codes.
func (reg *Registry) SetDisplaySet(codes []int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.display = make(map[int64]bool, len(codes))
	for _, code := range codes {
		for _, route := range reg.routes {
			if route.Code == code {
				reg.display[code] = true
				break
			}
		}
	}
}

// BufferMinutes returns the user's buffer setting.
func (reg *Registry) BufferMinutes() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.bufferMinutes
}

// SetBufferMinutes updates the buffer setting.
func (reg *Registry) SetBufferMinutes(minutes int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.bufferMinutes = minutes
}
