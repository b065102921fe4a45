// pkg/model/place.go
package model

import (
	"fmt"
	"strings"
)

// Source codes identifying the originating gazetteer
const (
	SourceTGN  = "TGN"
	SourceHGIS = "HGIS"
)

// UnnamedPlace replaces a missing place name
const UnnamedPlace = "[Unnamed Place]"

// AlternateNameDelimiter joins alternate names in the persisted form
const AlternateNameDelimiter = "|"

// CanonicalPlace is the unit persisted to the sink
type CanonicalPlace struct {
	OriginalSourceID int64
	Source           string
	PlaceName        string
	PlaceType        *string
	Latitude         *float64
	Longitude        *float64
	// ParentID references another OriginalSourceID of the same Source
	ParentID       *int64
	AlternateNames []string

	// CertaintyScore ranks HGIS duplicates and is never persisted
	CertaintyScore *int
}

// TrainingColumns is the column layout of training CSV files
var TrainingColumns = []string{"place_name", "place_type", "latitude", "longitude", "alternate_names"}

// Key is the natural key of a canonical place
type Key struct {
	OriginalSourceID int64
	Source           string
}

// Key returns the (original_source_id, source) pair
func (p *CanonicalPlace) Key() Key {
	return Key{OriginalSourceID: p.OriginalSourceID, Source: p.Source}
}

// String returns the key in "SOURCE:id" form for logs
func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Source, k.OriginalSourceID)
}

// JoinedAlternateNames returns the persisted form, nil when there are none
func (p *CanonicalPlace) JoinedAlternateNames() *string {
	if len(p.AlternateNames) == 0 {
		return nil
	}
	joined := strings.Join(p.AlternateNames, AlternateNameDelimiter)
	return &joined
}

// SplitAlternateNames is the inverse of JoinedAlternateNames
func SplitAlternateNames(joined string) []string {
	if joined == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(joined, AlternateNameDelimiter) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// HasCoordinates reports whether both latitude and longitude are present
func (p *CanonicalPlace) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// StringPtr, Float64Ptr, Int64Ptr and IntPtr build optional fields
func StringPtr(s string) *string { return &s }
func Float64Ptr(f float64) *float64 { return &f }
func Int64Ptr(i int64) *int64 { return &i }
func IntPtr(i int) *int { return &i }
