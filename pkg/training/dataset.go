// pkg/training/dataset.go

// Package training turns stored places into a text-to-coordinate model:
// extraction, region filtering, feature building, fitting and validation.
package training

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

	"github.com/David-Botos/gazetteer/pkg/cleaner"
	"github.com/David-Botos/gazetteer/pkg/model"
)

// Row is one line of a training CSV
type Row struct {
	PlaceName      string
	PlaceType      string
	Latitude       *float64
	Longitude      *float64
	AlternateNames string
}

// Located reports whether both coordinates are present
func (r Row) Located() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Exporter writes located places as training CSV
type Exporter interface {
	ExportTrainingRows(ctx context.Context, w io.Writer, sources ...string) (int, error)
}

// Extract exports the training rows of the given sources (all when empty)
// to path, replacing the file only once the export completed
func Extract(ctx context.Context, exporter Exporter, path string, sources ...string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".training-*.csv")
	if err != nil {
		return 0, fmt.Errorf("creating temporary export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	n, err := exporter.ExportTrainingRows(ctx, w, sources...)
	if err == nil {
		err = w.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("exporting training rows: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("moving export into place: %w", err)
	}
	return n, nil
}

// ReadRows parses a training CSV. Null tokens and unparsable coordinates
// leave the coordinate absent.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("training file is empty: missing header row")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"place_name", "latitude", "longitude"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("training file has no %s column", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) || cleaner.IsNull(record[i]) {
			return ""
		}
		return record[i]
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		row := Row{
			PlaceName:      field(record, "place_name"),
			PlaceType:      field(record, "place_type"),
			AlternateNames: field(record, "alternate_names"),
		}
		row.Latitude, _ = cleaner.ParseOptionalFloat(field(record, "latitude"))
		row.Longitude, _ = cleaner.ParseOptionalFloat(field(record, "longitude"))
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows in the same layout the store exports
func WriteRows(w io.Writer, rows []Row) error {
	out := csv.NewWriter(w)
	if err := out.Write(model.TrainingColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := out.Write([]string{
			r.PlaceName,
			r.PlaceType,
			formatOptional(r.Latitude),
			formatOptional(r.Longitude),
			r.AlternateNames,
		}); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// ReadRowsFile opens and parses a training CSV
func ReadRowsFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening training data: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// WriteRowsFile writes rows to path, creating its directory
func WriteRowsFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	err = WriteRows(w, rows)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
