// pkg/training/region.go
package training

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/David-Botos/gazetteer/pkg/config"
)

// Region is a lat/lng rectangle. Points on its boundary are outside.
type Region struct {
	rect s2.Rect
}

// NewRegion builds the rectangle spanned by the configured bounds. The
// longitude range runs eastward from MinLng to MaxLng.
func NewRegion(p config.RegionParams) Region {
	return Region{rect: s2.Rect{
		Lat: r1.Interval{Lo: radians(p.MinLat), Hi: radians(p.MaxLat)},
		Lng: s1.IntervalFromEndpoints(radians(p.MinLng), radians(p.MaxLng)),
	}}
}

func radians(degrees float64) float64 {
	return (s1.Angle(degrees) * s1.Degree).Radians()
}

// Contains reports whether the point lies strictly inside the region
func (r Region) Contains(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	ll := s2.LatLngFromDegrees(lat, lng)
	return r.rect.Lat.InteriorContains(ll.Lat.Radians()) && r.rect.Lng.InteriorContains(ll.Lng.Radians())
}

// RegionStats counts what Regionalize dropped
type RegionStats struct {
	Kept       int
	Unlocated  int
	OutOfRange int
}

// Regionalize keeps the located rows inside the region, preserving order
func (r Region) Regionalize(rows []Row) ([]Row, RegionStats) {
	var stats RegionStats
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !row.Located() {
			stats.Unlocated++
			continue
		}
		if !r.Contains(*row.Latitude, *row.Longitude) {
			stats.OutOfRange++
			continue
		}
		kept = append(kept, row)
	}
	stats.Kept = len(kept)
	return kept, stats
}
