// pkg/migrate/reader.go
package migrate

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// nullMarker is how the legacy export writes SQL NULL
const nullMarker = `\N`

// escapedReader splits tab-separated records where a backslash makes the
// next character literal, so escaped tabs and newlines stay inside a field.
// A field that starts with a double quote runs to the closing quote; a
// doubled quote inside it is a literal quote.
type escapedReader struct {
	r    *bufio.Reader
	line int
}

func newEscapedReader(r io.Reader) *escapedReader {
	return &escapedReader{r: bufio.NewReaderSize(r, 1024*1024)}
}

// Read returns the next record and the line it started on
func (e *escapedReader) Read() ([]field, int, error) {
	var (
		fields   []field
		value    strings.Builder
		raw      strings.Builder
		inQuotes bool
		read     bool
	)
	start := e.line + 1

	emit := func() {
		fields = append(fields, field{value: value.String(), null: raw.String() == nullMarker})
		value.Reset()
		raw.Reset()
	}

	for {
		c, _, err := e.r.ReadRune()
		if errors.Is(err, io.EOF) {
			if !read {
				return nil, start, io.EOF
			}
			emit()
			e.line++
			return fields, start, nil
		}
		if err != nil {
			return nil, start, err
		}
		read = true

		switch {
		case c == '\\':
			next, _, err := e.r.ReadRune()
			if err != nil {
				if errors.Is(err, io.EOF) {
					raw.WriteRune(c)
					continue
				}
				return nil, start, err
			}
			if next == '\n' {
				e.line++
			}
			raw.WriteRune(c)
			raw.WriteRune(next)
			value.WriteRune(next)
		case inQuotes && c == '"':
			peek, err := e.r.Peek(1)
			if err == nil && peek[0] == '"' {
				_, _ = e.r.ReadByte()
				value.WriteRune('"')
				raw.WriteString(`""`)
				continue
			}
			inQuotes = false
			raw.WriteRune(c)
		case inQuotes:
			if c == '\n' {
				e.line++
			}
			value.WriteRune(c)
			raw.WriteRune(c)
		case c == '"' && raw.Len() == 0:
			inQuotes = true
			raw.WriteRune(c)
		case c == '\t':
			emit()
		case c == '\r':
			if peek, err := e.r.Peek(1); err == nil && peek[0] == '\n' {
				continue
			}
			value.WriteRune(c)
			raw.WriteRune(c)
		case c == '\n':
			emit()
			e.line++
			return fields, start, nil
		default:
			value.WriteRune(c)
			raw.WriteRune(c)
		}
	}
}

// field is one decoded value and whether it was the NULL marker
type field struct {
	value string
	null  bool
}
