// pkg/source/tgn.go
package source

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/David-Botos/gazetteer/pkg/cleaner"
	"github.com/David-Botos/gazetteer/pkg/model"
)

// XMLSubject is one TGN Subject element. Tags carry no namespace so they
// match the export's default namespace.
type XMLSubject struct {
	XMLName           xml.Name `xml:"Subject"`
	SubjectID         string   `xml:"Subject_ID,attr"`
	PreferredTerms    []string `xml:"Terms>Preferred_Term>Term_Text"`
	NonPreferredTerms []string `xml:"Terms>Non-Preferred_Term>Term_Text"`
	Latitudes         []string `xml:"Coordinates>Standard>Latitude>Decimal"`
	Longitudes        []string `xml:"Coordinates>Standard>Longitude>Decimal"`
	PlaceTypeIDs      []string `xml:"Place_Types>Preferred_Place_Type>Place_Type_ID"`
	ParentSubjectIDs  []string `xml:"Parent_Relationships>Preferred_Parent>Parent_Subject_ID"`
}

// Normalize implements RawRecordSource
func (s *XMLSubject) Normalize(c *cleaner.DataCleaner) (*model.CanonicalPlace, error) {
	rawID := strings.TrimSpace(s.SubjectID)
	id, err := cleaner.ParseOptionalInt(rawID)
	if err != nil {
		return nil, invalidField("Subject_ID", rawID, err)
	}
	if id == nil {
		return nil, ErrMissingSourceID
	}

	name := cleaner.CleanName(firstOf(s.PreferredTerms))
	if name == "" {
		return nil, fmt.Errorf("subject %d: %w", *id, ErrMissingName)
	}

	place := &model.CanonicalPlace{
		OriginalSourceID: *id,
		Source:           model.SourceTGN,
		PlaceName:        name,
		AlternateNames:   c.CleanAlternateNames(model.SourceTGN, rawID, s.NonPreferredTerms),
	}

	if place.Latitude, err = cleaner.ParseOptionalFloat(firstOf(s.Latitudes)); err != nil {
		return nil, fmt.Errorf("subject %d: %w", *id, invalidField("latitude", firstOf(s.Latitudes), err))
	}
	if place.Longitude, err = cleaner.ParseOptionalFloat(firstOf(s.Longitudes)); err != nil {
		return nil, fmt.Errorf("subject %d: %w", *id, invalidField("longitude", firstOf(s.Longitudes), err))
	}
	if place.ParentID, err = cleaner.ParseOptionalInt(firstOf(s.ParentSubjectIDs)); err != nil {
		return nil, fmt.Errorf("subject %d: %w", *id, invalidField("parent_id", firstOf(s.ParentSubjectIDs), err))
	}

	place.PlaceType = tgnPlaceType(firstOf(s.PlaceTypeIDs))
	return place, nil
}

// tgnPlaceType keeps the label after the code in "83002/inhabited place"
func tgnPlaceType(raw string) *string {
	raw = strings.TrimSpace(raw)
	if parts := strings.Split(raw, "/"); len(parts) > 1 {
		raw = strings.TrimSpace(parts[1])
	}
	if raw == "" {
		return nil
	}
	return &raw
}

// SubjectStream decodes Subject elements one at a time so that only the
// current element is held in memory
type SubjectStream struct {
	dec       *xml.Decoder
	namespace string
	seen      bool
}

// NewSubjectStream wraps r. Documents declaring a non UTF-8 encoding are
// transcoded through the IANA registry.
func NewSubjectStream(r io.Reader) *SubjectStream {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := ianaindex.IANA.Encoding(label)
		if err != nil {
			return nil, fmt.Errorf("unsupported XML encoding %q: %w", label, err)
		}
		if enc == nil {
			return input, nil
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return &SubjectStream{dec: dec}
}

// Namespace returns the default namespace of the document root, once seen
func (s *SubjectStream) Namespace() string {
	return s.namespace
}

// Next returns the next Subject, or io.EOF at the end of the document.
// Any other error means the document itself is unreadable.
func (s *SubjectStream) Next() (*XMLSubject, error) {
	for {
		tok, err := s.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !s.seen {
			s.seen = true
			s.namespace = start.Name.Space
		}
		if start.Name.Local != "Subject" {
			continue
		}

		subject := &XMLSubject{}
		if err := s.dec.DecodeElement(subject, &start); err != nil {
			return nil, fmt.Errorf("failed to decode Subject: %w", err)
		}
		return subject, nil
	}
}
