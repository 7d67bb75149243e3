package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tideline.pugetsound.org/internal/models"
)

// memStore is an in-memory ReadStore.
type memStore struct {
	ids []string
}

func (s *memStore) ReadAlertIDs() ([]string, error) {
	return append([]string(nil), s.ids...), nil
}

func (s *memStore) SetReadAlertIDs(ids []string) error {
	s.ids = append([]string{}, ids...)
	return nil
}

const sampleFeed = "__ 20260310-01 5\n" +
	"Bainbridge run on one boat today.\n" +
	"Expect longer waits.\n" +
	"__ 20260311-02 4\n" +
	"Edmonds terminal overhead loading closed.\n" +
	"__ bogus-header-without-codes\n" +
	"this block is dropped\n" +
	"__ 20260312-03 not-a-number\n" +
	"so is this one\n"

func bainbridgeRoute() *models.Route {
	return models.NewRoute(1, 7, 3, "bainbridge", "bainbridge")
}

func TestManager_LoadAlerts(t *testing.T) {
	m := NewManager(&memStore{}, nil)
	require.NoError(t, m.LoadAlerts(sampleFeed))

	all := m.All()
	require.Len(t, all, 2, "malformed blocks are skipped, not fatal")
	assert.Equal(t, "20260310-01", all[0].ID)
	assert.Equal(t, int64(5), all[0].Codes)
	assert.Equal(t, "Bainbridge run on one boat today.\nExpect longer waits.\n", all[0].Body)
	assert.True(t, all[0].Unread)
}

func TestManager_AlertsFor_BitmaskAndOrder(t *testing.T) {
	m := NewManager(&memStore{}, nil)
	require.NoError(t, m.LoadAlerts(sampleFeed))

	// Route code 1 matches codes 5 (0b101) but not 4 (0b100).
	matches := m.AlertsFor(bainbridgeRoute())
	require.Len(t, matches, 1)
	assert.Equal(t, "20260310-01", matches[0].ID)

	// Route code 4 matches both alerts; newest id first.
	edmonds := models.NewRoute(4, 8, 12, "edmonds", "edmonds")
	matches = m.AlertsFor(edmonds)
	require.Len(t, matches, 2)
	assert.Equal(t, "20260311-02", matches[0].ID)
	assert.Equal(t, "20260310-01", matches[1].ID)
}

func TestManager_HasAlerts_ThreeStates(t *testing.T) {
	store := &memStore{}
	m := NewManager(store, nil)
	route := bainbridgeRoute()

	feed := "__ a-01 1\nfirst\n__ a-02 1\nsecond\n"
	require.NoError(t, m.LoadAlerts(feed))
	assert.Equal(t, models.AlertsUnread, m.HasAlerts(route))

	// One read, one unread: unread wins.
	require.NoError(t, m.MarkRead(m.All()[0]))
	assert.Equal(t, models.AlertsUnread, m.HasAlerts(route))

	require.NoError(t, m.MarkRead(m.All()[1]))
	assert.Equal(t, models.AlertsRead, m.HasAlerts(route))

	// Reload with neither id present: no matches at all.
	require.NoError(t, m.LoadAlerts("__ b-01 2\nother route\n"))
	assert.Equal(t, models.AlertsNone, m.HasAlerts(route))
}

func TestManager_ReadStatusSurvivesReload(t *testing.T) {
	store := &memStore{}
	m := NewManager(store, nil)

	require.NoError(t, m.LoadAlerts("__ a-01 1\nbody\n__ a-02 1\nbody\n"))
	require.NoError(t, m.MarkRead(m.All()[0]))

	// Same feed again: a-01 stays read.
	require.NoError(t, m.LoadAlerts("__ a-01 1\nbody\n__ a-02 1\nbody\n"))
	assert.False(t, m.All()[0].Unread)
	assert.True(t, m.All()[1].Unread)

	// a-01 disappears: its id is dropped from the persisted list.
	require.NoError(t, m.LoadAlerts("__ a-02 1\nbody\n"))
	assert.Equal(t, []string{}, store.ids)
}

func TestManager_MarkRead_Dedup(t *testing.T) {
	store := &memStore{}
	m := NewManager(store, nil)
	require.NoError(t, m.LoadAlerts("__ a-01 1\nbody\n"))

	alert := m.All()[0]
	require.NoError(t, m.MarkRead(alert))
	require.NoError(t, m.MarkRead(alert))
	assert.Equal(t, []string{"a-01"}, store.ids)
}
