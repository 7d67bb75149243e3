package models

// Alarm is a leave-by reminder for one chosen departure. FerryTime and
// LeaveByTime are logical minutes past midnight; TriggerAtMillis is the
// absolute wall-clock trigger timestamp recorded once the alarm is
// confirmed.
type Alarm struct {
	RouteID     int64     `json:"routeId"`
	Direction   Direction `json:"direction"`
	FerryTime   int       `json:"ferryTime"`
	LeaveByTime int       `json:"leaveByTime,omitempty"`
	// HasLeaveBy distinguishes "no explicit leave-by chosen yet" from a
	// leave-by of zero.
	HasLeaveBy      bool  `json:"hasLeaveBy,omitempty"`
	IsSet           bool  `json:"isSet"`
	TriggerAtMillis int64 `json:"triggerAtMillis,omitempty"`
}

// SameDeparture reports whether two alarms refer to the same sailing.
func (a *Alarm) SameDeparture(b *Alarm) bool {
	return a != nil && b != nil &&
		a.RouteID == b.RouteID &&
		a.Direction == b.Direction &&
		a.FerryTime == b.FerryTime
}

// Clone returns a copy safe to edit as a draft.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
