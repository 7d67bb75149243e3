package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tideline.pugetsound.org/internal/models"
)

func testTerminals() map[int]*models.Terminal {
	return map[int]*models.Terminal{
		7:  {Code: 7, Name: "Seattle", Lat: 47.601767, Lon: -122.336089},
		3:  {Code: 3, Name: "Bainbridge Island", Lat: 47.623046, Lon: -122.511377},
		8:  {Code: 8, Name: "Edmonds", Lat: 47.811240, Lon: -122.382631},
		1:  {Code: 1, Name: "Anacortes", Lat: 48.502220, Lon: -122.679455},
		16: {Code: 16, Name: "Point Defiance", Lat: 47.305414, Lon: -122.514123},
	}
}

func TestDistance(t *testing.T) {
	// Seattle to Bainbridge is about 13.4km across the Sound.
	d := Distance(47.601767, -122.336089, 47.623046, -122.511377)
	assert.InDelta(t, 13400, d, 400)

	assert.Zero(t, Distance(47.6, -122.3, 47.6, -122.3))

	// The exact-formula path agrees with known figures at scale:
	// Seattle to Anacortes is roughly 103km.
	d = Distance(47.601767, -122.336089, 48.502220, -122.679455)
	assert.InDelta(t, 103000, d, 3000)
}

func TestIndex_Nearest(t *testing.T) {
	idx := NewIndex(testTerminals())

	// Pioneer Square is closest to the Seattle terminal.
	term, dist, ok := idx.Nearest(models.Position{Lat: 47.6015, Lon: -122.3343})
	require.True(t, ok)
	assert.Equal(t, 7, term.Code)
	assert.Less(t, dist, 300.0)

	// Up north, Anacortes wins.
	term, _, ok = idx.Nearest(models.Position{Lat: 48.45, Lon: -122.6})
	require.True(t, ok)
	assert.Equal(t, 1, term.Code)
}

func TestIndex_Nearest_Empty(t *testing.T) {
	idx := NewIndex(nil)
	_, _, ok := idx.Nearest(models.Position{Lat: 47.6, Lon: -122.3})
	assert.False(t, ok)
}

func TestIndex_Within(t *testing.T) {
	idx := NewIndex(testTerminals())

	// 20km around downtown Seattle covers Seattle and Bainbridge but not
	// Edmonds (about 24km) or Point Defiance.
	near := idx.Within(models.Position{Lat: 47.6015, Lon: -122.3343}, 20000)
	codes := make([]int, 0, len(near))
	for _, term := range near {
		codes = append(codes, term.Code)
	}
	assert.ElementsMatch(t, []int{7, 3}, codes)

	assert.Empty(t, idx.Within(models.Position{Lat: 45.0, Lon: -120.0}, 1000))
}
