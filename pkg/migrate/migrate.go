// pkg/migrate/migrate.go

// Package migrate rewrites TGN exports taken before places carried a
// source column into the current layout.
package migrate

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/cleaner"
	"github.com/David-Botos/gazetteer/pkg/model"
)

// LegacyColumns is the column order of the pre-migration export
var LegacyColumns = []string{
	"place_id", "place_name", "place_type", "latitude", "longitude",
	"parent_id", "alternate_names", "created_at", "updated_at",
}

// OutputColumns is the column order of the converted file
var OutputColumns = []string{
	"place_name", "place_type", "latitude", "longitude", "parent_id",
	"alternate_names", "created_at", "updated_at", "original_source_id", "source",
}

const (
	colPlaceID = iota
	colPlaceName
	colPlaceType
	colLatitude
	colLongitude
	colParentID
	colAlternateNames
	colCreatedAt
	colUpdatedAt
)

// checkEvery is how often, in rows, Convert checks for cancellation
const checkEvery = 10000

// ErrBadLine marks a legacy line that could not be converted
var ErrBadLine = errors.New("bad line")

// Stats summarizes a conversion
type Stats struct {
	Rows    int
	Written int
	Skipped int
}

// LegacyConverter converts legacy TGN exports
type LegacyConverter struct {
	logger *zap.Logger
}

// NewLegacyConverter creates a converter
func NewLegacyConverter(logger *zap.Logger) *LegacyConverter {
	return &LegacyConverter{logger: logger.Named("migrate")}
}

// DefaultOutputPath names the converted file after its input
func DefaultOutputPath(in string) string {
	if out := strings.ReplaceAll(in, ".csv", "_new_columns.csv"); out != in {
		return out
	}
	return in + "_new_columns.csv"
}

// ConvertFile converts in and writes the result to out
func (c *LegacyConverter) ConvertFile(ctx context.Context, in, out string) (Stats, error) {
	src, err := os.Open(in)
	if err != nil {
		return Stats{}, fmt.Errorf("opening legacy export: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	dst, err := os.Create(out)
	if err != nil {
		return Stats{}, fmt.Errorf("creating %s: %w", out, err)
	}

	w := bufio.NewWriter(dst)
	stats, err := c.Convert(ctx, src, w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return stats, fmt.Errorf("converting %s: %w", in, err)
	}

	c.logger.Info("Legacy export converted",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("rows", stats.Rows),
		zap.Int("written", stats.Written),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// Convert reads a legacy tab-separated export with a header line and writes
// CSV in OutputColumns order. place_id becomes original_source_id and every
// row gets source TGN. Lines with too many fields or unparsable numbers are
// logged and skipped.
func (c *LegacyConverter) Convert(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats
	reader := newEscapedReader(r)

	if _, _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return stats, errors.New("legacy export is empty: missing header row")
		}
		return stats, fmt.Errorf("reading header: %w", err)
	}

	out := csv.NewWriter(w)
	if err := out.Write(OutputColumns); err != nil {
		return stats, err
	}

	for {
		fields, line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("reading line %d: %w", line, err)
		}
		if len(fields) == 1 && fields[0].value == "" && !fields[0].null {
			continue
		}

		stats.Rows++
		if stats.Rows%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		record, err := convertRecord(fields)
		if err != nil {
			stats.Skipped++
			c.logger.Warn("Skipping legacy line", zap.Int("line", line), zap.Error(err))
			continue
		}
		if err := out.Write(record); err != nil {
			return stats, err
		}
		stats.Written++
	}

	out.Flush()
	return stats, out.Error()
}

// convertRecord maps one legacy record to OutputColumns. Missing trailing
// fields are empty; NULL markers become empty values.
func convertRecord(fields []field) ([]string, error) {
	if len(fields) > len(LegacyColumns) {
		return nil, fmt.Errorf("%w: expected %d fields, saw %d", ErrBadLine, len(LegacyColumns), len(fields))
	}

	values := make([]string, len(LegacyColumns))
	for i, f := range fields {
		if !f.null {
			values[i] = f.value
		}
	}

	placeID, err := cleaner.ParseOptionalInt(values[colPlaceID])
	if err != nil {
		return nil, fmt.Errorf("%w: place_id: %v", ErrBadLine, err)
	}
	if placeID == nil {
		return nil, fmt.Errorf("%w: place_id is missing", ErrBadLine)
	}
	parentID, err := cleaner.ParseOptionalInt(values[colParentID])
	if err != nil {
		return nil, fmt.Errorf("%w: parent_id: %v", ErrBadLine, err)
	}
	lat, err := cleaner.ParseOptionalFloat(values[colLatitude])
	if err != nil {
		return nil, fmt.Errorf("%w: latitude: %v", ErrBadLine, err)
	}
	lng, err := cleaner.ParseOptionalFloat(values[colLongitude])
	if err != nil {
		return nil, fmt.Errorf("%w: longitude: %v", ErrBadLine, err)
	}

	return []string{
		values[colPlaceName],
		values[colPlaceType],
		formatFloat(lat),
		formatFloat(lng),
		formatInt(parentID),
		values[colAlternateNames],
		values[colCreatedAt],
		values[colUpdatedAt],
		strconv.FormatInt(*placeID, 10),
		model.SourceTGN,
	}, nil
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(i *int64) string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(*i, 10)
}
