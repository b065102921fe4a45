// pkg/placetype/placetype.go

// Package placetype maps HGIS place-type vocabulary onto the closed
// canonical vocabulary.
package placetype

import (
	"sort"
	"strings"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// Canonical place types
const (
	Fort                = "Fort"
	PartialJurisdiction = "Partial Jurisdiction"
	City                = "City"
	Town                = "Town"
	Village             = "Village"
	PopulationCenter    = "Population Center"
	Locality            = "Locality"
	RuralArea           = "Rural Area"
	Unspecified         = "Unspecified"
)

var translations = map[string]string{
	"Fuerte":      Fort,
	"Parcialidad": PartialJurisdiction,
	"Ciudad":      City,
	"Villa":       Town,
	"Pueblo":      Village,
	"Poblacion":   PopulationCenter,
	"Localidad":   Locality,
	"Rural":       RuralArea,
	"[-]":         Unspecified,
}

// Translate maps a source place type to its canonical label. Inputs outside
// the table, and absent inputs, yield nil: unknown categories are dropped.
func Translate(placeType *string) *string {
	if placeType == nil {
		return nil
	}
	canonical, ok := translations[strings.TrimSpace(*placeType)]
	if !ok {
		return nil
	}
	return &canonical
}

// TranslateAll rewrites PlaceType of every place in place and returns how
// many values were dropped as unmapped
func TranslateAll(places []*model.CanonicalPlace) (dropped int) {
	for _, p := range places {
		translated := Translate(p.PlaceType)
		if translated == nil && p.PlaceType != nil {
			dropped++
		}
		p.PlaceType = translated
	}
	return dropped
}

// Mapping is one row of the translation table
type Mapping struct {
	From string
	To   string
}

// Table returns the translation table sorted by source label
func Table() []Mapping {
	mappings := make([]Mapping, 0, len(translations))
	for from, to := range translations {
		mappings = append(mappings, Mapping{From: from, To: to})
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].From < mappings[j].From })
	return mappings
}
