// Package geo answers "which terminal is the user near" for the
// travel-time and default-direction features. The terminal set is tiny but
// lookups happen on every location reading, so terminals live in a small
// spatial index built once at startup.
package geo

import (
	"math"

	"github.com/tidwall/rtree"

	"tideline.pugetsound.org/internal/models"
)

const earthRadiusMeters = 6371010.0

// Distance returns the meters between two coordinates. All WSF terminals
// sit within a degree of each other, so an equirectangular approximation
// is used below that span and the exact formula beyond it.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	const deg = math.Pi / 180
	if math.Abs(lat2-lat1) < 1 && math.Abs(lon2-lon1) < 1 {
		x := (lon2 - lon1) * deg * math.Cos((lat1+lat2)/2*deg)
		y := (lat2 - lat1) * deg
		return earthRadiusMeters * math.Sqrt(x*x+y*y)
	}

	lat1r, lat2r := lat1*deg, lat2*deg
	dLon := (lon2 - lon1) * deg
	y := math.Sqrt(
		math.Pow(math.Cos(lat2r)*math.Sin(dLon), 2) +
			math.Pow(math.Cos(lat1r)*math.Sin(lat2r)-math.Sin(lat1r)*math.Cos(lat2r)*math.Cos(dLon), 2))
	x := math.Sin(lat1r)*math.Sin(lat2r) + math.Cos(lat1r)*math.Cos(lat2r)*math.Cos(dLon)
	return earthRadiusMeters * math.Atan2(y, x)
}

// Index is a read-only spatial index over the terminal table.
type Index struct {
	tree rtree.RTreeG[*models.Terminal]
}

// NewIndex builds the index from the terminal table.
func NewIndex(terminals map[int]*models.Terminal) *Index {
	idx := &Index{}
	for _, term := range terminals {
		point := [2]float64{term.Lon, term.Lat}
		idx.tree.Insert(point, point, term)
	}
	return idx
}

// Nearest returns the terminal closest to a position and its distance in
// meters. The second return is false only for an empty index.
func (idx *Index) Nearest(pos models.Position) (*models.Terminal, float64, bool) {
	var best *models.Terminal
	bestDist := math.Inf(1)
	idx.tree.Scan(func(_, _ [2]float64, term *models.Terminal) bool {
		if d := Distance(pos.Lat, pos.Lon, term.Lat, term.Lon); d < bestDist {
			best, bestDist = term, d
		}
		return true
	})
	if best == nil {
		return nil, 0, false
	}
	return best, bestDist, true
}

// Within returns the terminals inside radiusMeters of a position. The
// index search prunes on a bounding box; exact distance filters the rest.
func (idx *Index) Within(pos models.Position, radiusMeters float64) []*models.Terminal {
	latSpan := radiusMeters / earthRadiusMeters * 180 / math.Pi
	lonSpan := latSpan / math.Cos(pos.Lat*math.Pi/180)

	var result []*models.Terminal
	idx.tree.Search(
		[2]float64{pos.Lon - lonSpan, pos.Lat - latSpan},
		[2]float64{pos.Lon + lonSpan, pos.Lat + latSpan},
		func(_, _ [2]float64, term *models.Terminal) bool {
			if Distance(pos.Lat, pos.Lon, term.Lat, term.Lon) <= radiusMeters {
				result = append(result, term)
			}
			return true
		})
	return result
}
