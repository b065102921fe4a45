package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/David-Botos/gazetteer/pkg/config"
)

func ptr(f float64) *float64 { return &f }

func TestRegionContains(t *testing.T) {
	americas := NewRegion(config.DefaultTrainingConfig().Region)

	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"mexico city", 19.4326, -99.1332, true},
		{"lima", -12.0464, -77.0428, true},
		{"anchorage", 61.2181, -149.9003, true},
		{"madrid", 40.4168, -3.7038, false},
		{"tokyo", 35.6762, 139.6503, false},
		{"south of ushuaia", -55.0, -68.0, false},
		{"min lat boundary", -54.0, -70.0, false},
		{"max lat boundary", 71.439786, -100.0, false},
		{"just inside min lat", -53.999, -70.0, true},
		{"max lng boundary", 0, -56.0, false},
		{"min lng boundary", 10, -179.231086, false},
		{"nan", math.NaN(), -70, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, americas.Contains(tt.lat, tt.lng))
		})
	}
}

func TestRegionalize(t *testing.T) {
	region := NewRegion(config.RegionParams{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 10})
	rows := []Row{
		{PlaceName: "a", Latitude: ptr(5), Longitude: ptr(5)},
		{PlaceName: "b", Latitude: ptr(5)},
		{PlaceName: "c", Latitude: ptr(15), Longitude: ptr(5)},
		{PlaceName: "d", Latitude: ptr(1), Longitude: ptr(9)},
		{PlaceName: "e", Latitude: ptr(10), Longitude: ptr(5)},
	}

	kept, stats := region.Regionalize(rows)
	assert.Equal(t, RegionStats{Kept: 2, Unlocated: 1, OutOfRange: 2}, stats)
	assert.Equal(t, "a", kept[0].PlaceName)
	assert.Equal(t, "d", kept[1].PlaceName)
}
