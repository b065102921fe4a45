// pkg/training/preprocess.go
package training

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Sample is one model input with its coordinate target
type Sample struct {
	Text      string
	Latitude  float64
	Longitude float64
}

// FeatureText builds the model input for a place: the name and its
// alternates joined with "|", then the place type after a space
func FeatureText(placeName, alternateNames, placeType string) string {
	text := placeName + "|" + alternateNames
	if placeType = strings.TrimSpace(placeType); placeType != "" {
		text += " " + placeType
	}
	return text
}

// BuildSamples turns located rows into samples and returns how many rows
// were dropped for missing coordinates
func BuildSamples(rows []Row) ([]Sample, int) {
	samples := make([]Sample, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if !r.Located() {
			dropped++
			continue
		}
		samples = append(samples, Sample{
			Text:      FeatureText(r.PlaceName, r.AlternateNames, r.PlaceType),
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
		})
	}
	return samples, dropped
}

// Split is a persisted train/test partition
type Split struct {
	Train    []Sample
	Test     []Sample
	TestSize float64
	Seed     int64
}

// TrainTestSplit shuffles samples with seed and holds out ceil(testSize*n)
// of them for testing
func TrainTestSplit(samples []Sample, testSize float64, seed int64) (*Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, fmt.Errorf("test size %v must be between 0 and 1", testSize)
	}
	n := len(samples)
	nTest := int(math.Ceil(testSize * float64(n)))
	if n < 2 || nTest >= n {
		return nil, fmt.Errorf("cannot split %d samples with test size %v", n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	split := &Split{
		Train:    make([]Sample, 0, n-nTest),
		Test:     make([]Sample, 0, nTest),
		TestSize: testSize,
		Seed:     seed,
	}
	for i, idx := range perm {
		if i < nTest {
			split.Test = append(split.Test, samples[idx])
		} else {
			split.Train = append(split.Train, samples[idx])
		}
	}
	return split, nil
}

// SaveGob writes v gob encoded and gzipped to path
func SaveGob(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	zw := gzip.NewWriter(f)
	err = gob.NewEncoder(zw).Encode(v)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadGob reads a file written by SaveGob into v
func LoadGob(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer zr.Close()

	if err := gob.NewDecoder(zr).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// LoadSplit reads a split written with SaveGob
func LoadSplit(path string) (*Split, error) {
	var split Split
	if err := LoadGob(path, &split); err != nil {
		return nil, err
	}
	if len(split.Train) == 0 {
		return nil, errors.New("train/test split has no training samples")
	}
	return &split, nil
}
