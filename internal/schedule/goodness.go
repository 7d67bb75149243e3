package schedule

import (
	"time"

	"tideline.pugetsound.org/internal/models"
)

const (
	// departureFudge discounts the travel time when deciding "too late":
	// even a drive 10% faster than estimated would cut it too close.
	departureFudge = 0.9
	// indifferenceWindow is the slack beyond which no urgency signal is
	// shown. Two hours is the most anyone plans around a ferry.
	indifferenceWindow = 120
)

// Classify places a departure into a goodness band given logical now, the
// travel time to the departure terminal, and the user's buffer. The bands
// are checked in a fixed order; they are not derivable from a single
// comparison, so the order is part of the contract.
func Classify(now, travelTime int, travelKnown bool, bufferMinutes, departure int) models.Goodness {
	switch {
	case !travelKnown:
		return models.GoodnessUnknown
	case float64(now)+departureFudge*float64(travelTime) >= float64(departure):
		return models.TooLate
	case now+travelTime+bufferMinutes >= departure:
		return models.Risky
	case now+travelTime+bufferMinutes+indifferenceWindow < departure:
		return models.Indifferent
	default:
		return models.Good
	}
}

// SetTravelTime records the travel time in minutes to one terminal and
// refreshes the batch timestamp.
func (reg *Registry) SetTravelTime(terminalCode, minutes int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.terminals[terminalCode]; !ok {
		return
	}
	reg.travel[terminalCode] = minutes
	reg.travelLoadedAt = reg.clk.Now()
}

// ClearTravelTimes drops all travel times, e.g. when the location feature
// is turned off.
func (reg *Registry) ClearTravelTimes() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.travel = make(map[int]int)
	reg.travelLoadedAt = time.Time{}
}

// TravelTime returns the minutes to reach a terminal. The second return is
// false when no reading exists or the last batch is older than
// MaxTravelTimeAge.
func (reg *Registry) TravelTime(terminalCode int) (int, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	minutes, ok := reg.travel[terminalCode]
	if !ok {
		return 0, false
	}
	if reg.clk.Now().Sub(reg.travelLoadedAt) > MaxTravelTimeAge {
		return 0, false
	}
	return minutes, true
}
