// pkg/cleaner/operations.go
package cleaner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNotNumeric is returned when a present value cannot be parsed as a number
var ErrNotNumeric = errors.New("value is not numeric")

// nullTokens are the raw values every CSV reader treats as absent
var nullTokens = map[string]struct{}{
	"":     {},
	`\`:    {},
	`\N`:   {},
	"N":    {},
	"NULL": {},
	"null": {},
	"nan":  {},
	"NaN":  {},
	"None": {},
	"<NA>": {},
}

// IsNull determines if a raw value should be treated as absent
func IsNull(raw string) bool {
	_, ok := nullTokens[strings.TrimSpace(raw)]
	return ok
}

// ParseOptionalInt parses an integer field. Absent values yield nil and no
// error; integral decimals such as "12.0" are accepted.
func ParseOptionalInt(raw string) (*int64, error) {
	if IsNull(raw) {
		return nil, nil
	}
	cleaned := strings.TrimSpace(raw)

	if v, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return &v, nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	v := int64(f)
	return &v, nil
}

// ParseOptionalFloat parses a decimal field. Absent values yield nil and no error.
func ParseOptionalFloat(raw string) (*float64, error) {
	if IsNull(raw) {
		return nil, nil
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	return &f, nil
}

// CleanName trims, collapses internal whitespace and NFC-normalizes a name
func CleanName(raw string) string {
	return norm.NFC.String(strings.Join(strings.Fields(raw), " "))
}

// CleanTerm prepares one alternate name for delimiter-joined storage:
// backslashes are removed and any embedded delimiter becomes "/".
// It reports which of the two rewrites happened.
func CleanTerm(raw string) (term string, removedBackslash, escapedDelimiter bool) {
	term = raw
	if strings.Contains(term, `\`) {
		term = strings.ReplaceAll(term, `\`, "")
		removedBackslash = true
	}
	if strings.Contains(term, "|") {
		term = strings.ReplaceAll(term, "|", "/")
		escapedDelimiter = true
	}
	return CleanName(term), removedBackslash, escapedDelimiter
}

// foldTransformer strips combining marks after canonical decomposition
func foldTransformer() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Fold lowercases and strips diacritics, so "Identificación" matches
// "identificacion"
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer(), s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// certaintyScores maps folded certainty labels to their rank
var certaintyScores = map[string]int{
	"exacta":                  100,
	"buena":                   85,
	"suficiente":              70,
	"interpolada":             50,
	"geoservice/satelite":     40,
	"geoservice":              40,
	"satelite":                40,
	"no localizado":           30,
	"identificacion incierta": 25,
}

// CertaintyScore converts a qualitative certainty label to its numeric rank.
// Unrecognized or absent labels yield nil.
func CertaintyScore(label string) *int {
	if IsNull(label) {
		return nil
	}
	key := strings.ReplaceAll(Fold(label), " / ", "/")
	score, ok := certaintyScores[key]
	if !ok {
		return nil
	}
	return &score
}
