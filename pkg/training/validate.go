// pkg/training/validate.go
package training

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/gazetteer/pkg/cleaner"
)

// earthRadiusKm is the mean Earth radius
const earthRadiusKm = 6371.0088

// validationColumns lists accepted header names per field, first match wins
var validationColumns = map[string][]string{
	"name": {"nombre_lugar", "place_name"},
	"type": {"tipo", "place_type"},
	"lat":  {"lat", "latitude"},
	"lon":  {"lon", "longitude"},
}

// ValidationRecord is one located place with a known answer
type ValidationRecord struct {
	Name      string
	Type      string
	Latitude  float64
	Longitude float64
}

// Text is the model input for the record
func (r ValidationRecord) Text() string {
	return strings.TrimSpace(r.Name + " " + r.Type)
}

// ValidationMetrics scores predictions against known coordinates
type ValidationMetrics struct {
	Samples        int     `json:"samples"`
	Skipped        int     `json:"skipped"`
	MAELatitude    float64 `json:"validation_mae_lat"`
	MAELongitude   float64 `json:"validation_mae_lon"`
	MSELatitude    float64 `json:"validation_mse_lat"`
	MSELongitude   float64 `json:"validation_mse_lon"`
	MeanDistanceKm float64 `json:"mean_distance_km"`
}

// Log writes the metrics at info level
func (v ValidationMetrics) Log(logger *zap.Logger) {
	logger.Info("Validation complete",
		zap.Int("samples", v.Samples),
		zap.Int("skipped", v.Skipped),
		zap.Float64("mae_lat", v.MAELatitude),
		zap.Float64("mae_lon", v.MAELongitude),
		zap.Float64("mse_lat", v.MSELatitude),
		zap.Float64("mse_lon", v.MSELongitude),
		zap.Float64("mean_distance_km", v.MeanDistanceKm))
}

// ReadValidation parses a validation CSV. Rows without both coordinates
// are counted in skipped.
func ReadValidation(r io.Reader) ([]ValidationRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, errors.New("validation file is empty: missing header row")
		}
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	index := make(map[string]int, len(validationColumns))
	for field, names := range validationColumns {
		for _, name := range names {
			if i, ok := positions[name]; ok {
				index[field] = i
				break
			}
		}
	}
	for _, required := range []string{"name", "lat", "lon"} {
		if _, ok := index[required]; !ok {
			return nil, 0, fmt.Errorf("validation file has no %s column", validationColumns[required][0])
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) || cleaner.IsNull(record[i]) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var records []ValidationRecord
	skipped := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading line %d: %w", line, err)
		}

		lat, _ := cleaner.ParseOptionalFloat(field(record, "lat"))
		lon, _ := cleaner.ParseOptionalFloat(field(record, "lon"))
		if lat == nil || lon == nil {
			skipped++
			continue
		}
		records = append(records, ValidationRecord{
			Name:      field(record, "name"),
			Type:      field(record, "type"),
			Latitude:  *lat,
			Longitude: *lon,
		})
	}
	return records, skipped, nil
}

// ValidationSet is the parsed content of a validation file
type ValidationSet struct {
	Records []ValidationRecord
	Skipped int
}

// ReadValidationFile opens and parses a validation CSV
func ReadValidationFile(path string) (*ValidationSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening validation data: %w", err)
	}
	defer f.Close()

	records, skipped, err := ReadValidation(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &ValidationSet{Records: records, Skipped: skipped}, nil
}

// Evaluate predicts every record of set and scores the predictions
func Evaluate(m *Model, set *ValidationSet) (ValidationMetrics, error) {
	if len(set.Records) == 0 {
		return ValidationMetrics{}, errors.New("no located validation records")
	}

	n := len(set.Records)
	lat := make([]float64, n)
	lon := make([]float64, n)
	predLat := make([]float64, n)
	predLon := make([]float64, n)
	for i, r := range set.Records {
		lat[i], lon[i] = r.Latitude, r.Longitude
		var err error
		if predLat[i], predLon[i], err = m.Predict(r.Text()); err != nil {
			return ValidationMetrics{}, err
		}
	}

	metrics := Score(lat, lon, predLat, predLon)
	metrics.Skipped = set.Skipped
	return metrics, nil
}

// Score computes per-axis MAE and MSE and the mean great-circle distance
func Score(lat, lon, predLat, predLon []float64) ValidationMetrics {
	n := len(lat)
	absLat := make([]float64, n)
	absLon := make([]float64, n)
	sqLat := make([]float64, n)
	sqLon := make([]float64, n)
	dist := make([]float64, n)
	for i := 0; i < n; i++ {
		dLat, dLon := lat[i]-predLat[i], lon[i]-predLon[i]
		absLat[i], absLon[i] = math.Abs(dLat), math.Abs(dLon)
		sqLat[i], sqLon[i] = dLat*dLat, dLon*dLon
		dist[i] = DistanceKm(lat[i], lon[i], predLat[i], predLon[i])
	}

	return ValidationMetrics{
		Samples:        n,
		MAELatitude:    stat.Mean(absLat, nil),
		MAELongitude:   stat.Mean(absLon, nil),
		MSELatitude:    stat.Mean(sqLat, nil),
		MSELongitude:   stat.Mean(sqLon, nil),
		MeanDistanceKm: stat.Mean(dist, nil),
	}
}

// DistanceKm is the great-circle distance between two points
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKm
}
