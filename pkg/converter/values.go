// pkg/converter/values.go
package converter

import (
	"database/sql"
	"strings"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// PlaceRow is the persisted form of a canonical place
type PlaceRow struct {
	PlaceID          int64           `db:"place_id"`
	OriginalSourceID int64           `db:"original_source_id"`
	Source           string          `db:"source"`
	PlaceName        string          `db:"place_name"`
	PlaceType        sql.NullString  `db:"place_type"`
	Latitude         sql.NullFloat64 `db:"latitude"`
	Longitude        sql.NullFloat64 `db:"longitude"`
	ParentID         sql.NullInt64   `db:"parent_id"`
	AlternateNames   sql.NullString  `db:"alternate_names"`
}

// ToRow converts a canonical place into its persisted form. The certainty
// score is dropped.
func (c *TypeConverter) ToRow(p *model.CanonicalPlace) PlaceRow {
	row := PlaceRow{
		OriginalSourceID: p.OriginalSourceID,
		Source:           p.Source,
		PlaceName:        p.PlaceName,
		PlaceType:        c.nullString(p.PlaceType),
		AlternateNames:   c.nullString(p.JoinedAlternateNames()),
	}
	if row.PlaceName == "" {
		row.PlaceName = model.UnnamedPlace
	}
	if p.Latitude != nil {
		row.Latitude = sql.NullFloat64{Float64: *p.Latitude, Valid: true}
	}
	if p.Longitude != nil {
		row.Longitude = sql.NullFloat64{Float64: *p.Longitude, Valid: true}
	}
	if p.ParentID != nil {
		row.ParentID = sql.NullInt64{Int64: *p.ParentID, Valid: true}
	}
	return row
}

// ToRows converts a batch of canonical places
func (c *TypeConverter) ToRows(places []*model.CanonicalPlace) []PlaceRow {
	rows := make([]PlaceRow, len(places))
	for i, p := range places {
		rows[i] = c.ToRow(p)
	}
	return rows
}

// ToCanonical converts a stored row back into a canonical place
func (r PlaceRow) ToCanonical() *model.CanonicalPlace {
	p := &model.CanonicalPlace{
		OriginalSourceID: r.OriginalSourceID,
		Source:           r.Source,
		PlaceName:        r.PlaceName,
	}
	if r.PlaceType.Valid {
		p.PlaceType = model.StringPtr(r.PlaceType.String)
	}
	if r.Latitude.Valid {
		p.Latitude = model.Float64Ptr(r.Latitude.Float64)
	}
	if r.Longitude.Valid {
		p.Longitude = model.Float64Ptr(r.Longitude.Float64)
	}
	if r.ParentID.Valid {
		p.ParentID = model.Int64Ptr(r.ParentID.Int64)
	}
	if r.AlternateNames.Valid {
		p.AlternateNames = model.SplitAlternateNames(r.AlternateNames.String)
	}
	return p
}

func (c *TypeConverter) nullString(s *string) sql.NullString {
	if s == nil || strings.TrimSpace(*s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
