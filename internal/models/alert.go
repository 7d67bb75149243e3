package models

// Alert is one service bulletin. IDs embed a timestamp-like prefix and are
// lexically sortable, so string comparison approximates chronological order.
// Codes is a bitmask of affected route codes.
type Alert struct {
	ID     string `json:"id"`
	Codes  int64  `json:"codes"`
	Body   string `json:"body"`
	Unread bool   `json:"unread"`
}

// AlertStatus summarizes a route's alert state for list rendering.
type AlertStatus string

const (
	AlertsNone   AlertStatus = ""
	AlertsRead   AlertStatus = "alerts_read"
	AlertsUnread AlertStatus = "alerts_unread"
)
