package models

// Terminal is a ferry dock. Travel-time state lives in the terminal
// registry, not here, so the model stays immutable shared data.
type Terminal struct {
	Code int     `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Goodness classifies how comfortably a user can make a given departure.
type Goodness string

const (
	// GoodnessUnknown means no travel time is available; this is a normal
	// state (location feature off or not yet resolved), not an error.
	GoodnessUnknown Goodness = "Unknown"
	// TooLate means even an optimistic drive misses the boat.
	TooLate Goodness = "TooLate"
	// Risky means arrival lands inside the user's buffer window.
	Risky Goodness = "Risky"
	// Good means the departure is comfortably reachable.
	Good Goodness = "Good"
	// Indifferent means the departure is more than two hours out and no
	// urgency signal is useful.
	Indifferent Goodness = "Indifferent"
)
