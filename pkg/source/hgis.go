// pkg/source/hgis.go
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/David-Botos/gazetteer/pkg/cleaner"
	"github.com/David-Botos/gazetteer/pkg/model"
)

// Canonical column names
const (
	ColOriginalSourceID = "original_source_id"
	ColPlaceName        = "place_name"
	ColPlaceType        = "place_type"
	ColLatitude         = "latitude"
	ColLongitude        = "longitude"
	ColParentID         = "parent_id"
	ColAlternateNames   = "alternate_names"
	ColCertainty        = "cert"
)

// hgisColumns renames HGIS export headers to canonical names. Canonical
// names map to themselves so already-renamed files load too.
var hgisColumns = map[string]string{
	"gz_id":         ColOriginalSourceID,
	"nombre_lugar":  ColPlaceName,
	"tipo":          ColPlaceType,
	"lat":           ColLatitude,
	"latitud":       ColLatitude,
	"lon":           ColLongitude,
	"longitud":      ColLongitude,
	"otros_nombres": ColAlternateNames,
	"cert":          ColCertainty,
	"certainty":     ColCertainty,

	ColOriginalSourceID: ColOriginalSourceID,
	ColPlaceName:        ColPlaceName,
	ColPlaceType:        ColPlaceType,
	ColLatitude:         ColLatitude,
	ColLongitude:        ColLongitude,
	ColParentID:         ColParentID,
	ColAlternateNames:   ColAlternateNames,
}

// CanonicalColumn returns the canonical name for a header, or "" when the
// column is not loaded
func CanonicalColumn(header string) string {
	return hgisColumns[strings.ToLower(strings.TrimSpace(header))]
}

// TabularRow is one row of the HGIS table with its raw headers
type TabularRow struct {
	Line    int
	Headers []string
	Values  []string
}

// value returns the first present value among the headers renamed to
// canonical, in header order
func (r *TabularRow) value(canonical string) string {
	for i, header := range r.Headers {
		if i >= len(r.Values) {
			break
		}
		if CanonicalColumn(header) == canonical && !cleaner.IsNull(r.Values[i]) {
			return r.Values[i]
		}
	}
	return ""
}

// Normalize implements RawRecordSource. Only the source identifier is
// mandatory; unparsable optional numbers become absent.
func (r *TabularRow) Normalize(c *cleaner.DataCleaner) (*model.CanonicalPlace, error) {
	rawID := r.value(ColOriginalSourceID)
	id, err := cleaner.ParseOptionalInt(rawID)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", r.Line, invalidField(ColOriginalSourceID, rawID, err))
	}
	if id == nil {
		return nil, fmt.Errorf("line %d: %w", r.Line, ErrMissingSourceID)
	}
	recordID := strconv.FormatInt(*id, 10)

	place := &model.CanonicalPlace{
		OriginalSourceID: *id,
		Source:           model.SourceHGIS,
		PlaceName:        cleaner.CleanName(r.value(ColPlaceName)),
	}

	if place.PlaceName == "" {
		place.PlaceName = model.UnnamedPlace
		c.Record(model.CleaningOperation{
			Source: model.SourceHGIS, RecordID: recordID, Field: ColPlaceName,
			Operation: model.OpNamePlaceholder,
		})
	}

	if raw := cleaner.CleanName(r.value(ColPlaceType)); raw != "" {
		place.PlaceType = &raw
	}

	place.Latitude = optionalFloat(c, recordID, ColLatitude, r.value(ColLatitude))
	place.Longitude = optionalFloat(c, recordID, ColLongitude, r.value(ColLongitude))

	rawParent := r.value(ColParentID)
	if place.ParentID, err = cleaner.ParseOptionalInt(rawParent); err != nil {
		c.Record(model.CleaningOperation{
			Source: model.SourceHGIS, RecordID: recordID, Field: ColParentID,
			OriginalValue: rawParent, Operation: model.OpNumericDiscarded,
		})
	}

	if raw := r.value(ColAlternateNames); raw != "" {
		place.AlternateNames = c.CleanAlternateNames(model.SourceHGIS, recordID, strings.Split(raw, model.AlternateNameDelimiter))
	}

	label := r.value(ColCertainty)
	place.CertaintyScore = cleaner.CertaintyScore(label)
	if place.CertaintyScore == nil && label != "" {
		c.Record(model.CleaningOperation{
			Source: model.SourceHGIS, RecordID: recordID, Field: ColCertainty,
			OriginalValue: label, Operation: model.OpCertaintyUnknown,
		})
	}

	return place, nil
}

func optionalFloat(c *cleaner.DataCleaner, recordID, field, raw string) *float64 {
	v, err := cleaner.ParseOptionalFloat(raw)
	if err != nil {
		c.Record(model.CleaningOperation{
			Source: model.SourceHGIS, RecordID: recordID, Field: field,
			OriginalValue: raw, Operation: model.OpNumericDiscarded,
		})
		return nil
	}
	return v
}

// ReadTable loads a whole delimited table. The header row is required;
// short rows leave their missing columns absent.
func ReadTable(r io.Reader, comma rune) ([]TabularRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("table is empty: missing header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	if !hasIdentifierColumn(header) {
		return nil, fmt.Errorf("table has no gz_id or %s column", ColOriginalSourceID)
	}

	var rows []TabularRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		rows = append(rows, TabularRow{Line: line, Headers: header, Values: record})
	}

	return rows, nil
}

func hasIdentifierColumn(header []string) bool {
	for _, h := range header {
		if CanonicalColumn(h) == ColOriginalSourceID {
			return true
		}
	}
	return false
}
