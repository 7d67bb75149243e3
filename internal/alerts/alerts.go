// Package alerts manages service bulletins: parsing the alert feed,
// matching alerts to routes by bitmask, and tracking read/unread state
// across reloads.
package alerts

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"tideline.pugetsound.org/internal/models"
)

// ReadStore persists which alert ids the user has already read.
type ReadStore interface {
	ReadAlertIDs() ([]string, error)
	SetReadAlertIDs(ids []string) error
}

// Manager holds the current alert list. The list is replaced wholesale on
// every feed load; read status survives reloads by matching ids against
// the persisted read list.
type Manager struct {
	mu     sync.Mutex
	store  ReadStore
	logger *slog.Logger
	alerts []*models.Alert
}

// NewManager creates an empty alert manager.
func NewManager(store ReadStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		logger: logger.With(slog.String("component", "alerts")),
	}
}

// LoadAlerts replaces the alert list from a feed payload. Blocks are
// introduced by a line starting with "__"; the header is "__ <id> <codes>"
// and the remaining lines up to the next delimiter are the body. Blocks
// with unresolvable headers are skipped, not fatal.
//
// After parsing, read status is recovered: alerts whose id appears in the
// persisted read list stay read, and the list is rewritten to only the ids
// that still exist so it cannot grow without bound.
func (m *Manager) LoadAlerts(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alerts = nil
	var current *models.Alert
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.Join(body, "\n")
		if current.Body != "" && !strings.HasSuffix(current.Body, "\n") {
			current.Body += "\n"
		}
		m.alerts = append(m.alerts, current)
		current = nil
	}

	for line := range strings.Lines(text) {
		line = strings.TrimSuffix(line, "\n")
		if !strings.HasPrefix(line, "__") {
			if current != nil {
				body = append(body, line)
			}
			continue
		}
		flush()
		body = body[:0]

		fields := strings.Fields(line)
		if len(fields) < 3 {
			m.logger.Warn("skipping alert block with short header", slog.String("header", line))
			continue
		}
		codes, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			m.logger.Warn("skipping alert block with bad route codes",
				slog.String("header", line), slog.String("error", err.Error()))
			continue
		}
		current = &models.Alert{ID: fields[1], Codes: codes, Unread: true}
	}
	flush()

	return m.recoverReadStatus()
}

// recoverReadStatus marks surviving alerts read and rewrites the persisted
// read list to the intersection. Caller must hold m.mu.
func (m *Manager) recoverReadStatus() error {
	if m.store == nil {
		return nil
	}
	previous, err := m.store.ReadAlertIDs()
	if err != nil {
		return err
	}
	surviving := make([]string, 0, len(previous))
	for _, id := range previous {
		for _, alert := range m.alerts {
			if alert.ID == id {
				alert.Unread = false
				surviving = append(surviving, id)
				break
			}
		}
	}
	return m.store.SetReadAlertIDs(surviving)
}

// All returns every current alert.
func (m *Manager) All() []*models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Alert(nil), m.alerts...)
}

// AlertsFor returns the alerts affecting a route, newest id first. Ids are
// structured so that lexical order approximates chronological order.
func (m *Manager) AlertsFor(route *models.Route) []*models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []*models.Alert
	for _, alert := range m.alerts {
		if alert.Codes&route.Code != 0 {
			matches = append(matches, alert)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID > matches[j].ID
	})
	return matches
}

// HasAlerts summarizes a route's alert state. Unread matches take priority
// over merely-read ones.
func (m *Manager) HasAlerts(route *models.Route) models.AlertStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := models.AlertsNone
	for _, alert := range m.alerts {
		if alert.Codes&route.Code == 0 {
			continue
		}
		if alert.Unread {
			return models.AlertsUnread
		}
		status = models.AlertsRead
	}
	return status
}

// MarkRead marks one alert read and adds its id to the persisted read
// list (deduplicated).
func (m *Manager) MarkRead(alert *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert.Unread = false
	if m.store == nil {
		return nil
	}
	ids, err := m.store.ReadAlertIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == alert.ID {
			return nil
		}
	}
	return m.store.SetReadAlertIDs(append(ids, alert.ID))
}
