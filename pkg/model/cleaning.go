// pkg/model/cleaning.go
package model

// CleaningOperation records a value the normalizer changed or discarded
type CleaningOperation struct {
	Source        string // Source code of the record
	RecordID      string // Raw identifier of the record, may be empty
	Field         string // Canonical field that was cleaned
	OriginalValue string // Raw value before cleaning
	Operation     string // Type of cleaning performed
}

// Cleaning operation types
const (
	OpNamePlaceholder  = "name_placeholder"
	OpNumericDiscarded = "numeric_discarded"
	OpBackslashRemoved = "backslash_removed"
	OpDelimiterEscaped = "delimiter_escaped"
	OpTypeUnmapped     = "type_unmapped"
	OpCertaintyUnknown = "certainty_unknown"
)
