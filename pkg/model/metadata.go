// pkg/model/metadata.go
package model

// PlacesTable is the table every source is loaded into
const PlacesTable = "places"

// TableMetadata contains the structure information for a database table
type TableMetadata struct {
	Table       string   // Table name
	Columns     []Column // Column definitions
	PrimaryKeys []string // List of primary key column names
	UniqueKeys  []string // Columns forming the natural key
}

// ColumnKind is the dialect-independent type of a column
type ColumnKind int

const (
	KindSerial ColumnKind = iota
	KindBigInt
	KindText
	KindShortText
	KindDecimal
	KindTimestamp
)

// Column represents metadata about a database column
type Column struct {
	Name         string     // Column name
	Kind         ColumnKind // Dialect-independent type
	Nullable     bool       // Whether column allows NULL values
	IsPrimaryKey bool       // Whether column is part of primary key
	Defaulted    bool       // Filled by the database on insert
}

// PlacesMetadata describes the places table
func PlacesMetadata() *TableMetadata {
	return &TableMetadata{
		Table: PlacesTable,
		Columns: []Column{
			{Name: "place_id", Kind: KindSerial, IsPrimaryKey: true, Defaulted: true},
			{Name: "original_source_id", Kind: KindBigInt},
			{Name: "source", Kind: KindShortText},
			{Name: "place_name", Kind: KindText},
			{Name: "place_type", Kind: KindText, Nullable: true},
			{Name: "latitude", Kind: KindDecimal, Nullable: true},
			{Name: "longitude", Kind: KindDecimal, Nullable: true},
			{Name: "parent_id", Kind: KindBigInt, Nullable: true},
			{Name: "alternate_names", Kind: KindText, Nullable: true},
			{Name: "created_at", Kind: KindTimestamp, Defaulted: true},
			{Name: "updated_at", Kind: KindTimestamp, Defaulted: true},
		},
		PrimaryKeys: []string{"place_id"},
		UniqueKeys:  []string{"original_source_id", "source"},
	}
}

// InsertColumns returns the columns an insert must supply
func (tm *TableMetadata) InsertColumns() []string {
	var names []string
	for _, col := range tm.Columns {
		if !col.Defaulted {
			names = append(names, col.Name)
		}
	}
	return names
}
