// pkg/source/source.go

// Package source reads gazetteer exports and turns each raw record into a
// model.CanonicalPlace.
package source

import (
	"errors"
	"fmt"

	"github.com/David-Botos/gazetteer/pkg/cleaner"
	"github.com/David-Botos/gazetteer/pkg/model"
)

// Per-record errors. A record failing with one of these is skipped and
// counted; the run continues.
var (
	ErrMissingSourceID = errors.New("record has no source identifier")
	ErrMissingName     = errors.New("record has no place name")
	ErrInvalidField    = errors.New("record field is not parsable")
)

// RawRecordSource is one source-specific record awaiting normalization
type RawRecordSource interface {
	// Normalize maps the record to a canonical place. The cleaner may be nil.
	Normalize(c *cleaner.DataCleaner) (*model.CanonicalPlace, error)
}

// IsRecordError reports whether err only invalidates a single record
func IsRecordError(err error) bool {
	return errors.Is(err, ErrMissingSourceID) ||
		errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrInvalidField)
}

func invalidField(field, raw string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", ErrInvalidField, field, raw, err)
}

func firstOf(values []string) string {
	for _, v := range values {
		if !cleaner.IsNull(v) {
			return v
		}
	}
	return ""
}
