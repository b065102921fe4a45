// pkg/transfer/verifier.go
package transfer

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// RowCounter counts stored rows per source
type RowCounter interface {
	CountBySource(ctx context.Context, source string) (int64, error)
}

// PlaceReader loads one stored place by natural key
type PlaceReader interface {
	GetPlace(ctx context.Context, key model.Key) (*model.CanonicalPlace, error)
}

// RowDiscrepancy represents a difference between a loaded place and its stored row
type RowDiscrepancy struct {
	Key         model.Key
	ColumnName  string
	Expected    interface{}
	Actual      interface{}
	Discrepancy string
}

// VerificationReport contains the results of a post-load verification
type VerificationReport struct {
	Source              string
	VerificationTime    time.Time
	Expected            int64
	Actual              int64
	Match               bool
	SampleSize          int
	SampleDiscrepancies []RowDiscrepancy
	Duration            time.Duration
}

// Verifier checks that the sink holds what the loader committed
type Verifier struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{
		logger:  logger,
		timeout: time.Minute * 5,
	}
}

// VerifyRowCount compares the stored row count of a source with expected
func (v *Verifier) VerifyRowCount(
	ctx context.Context,
	counter RowCounter,
	source string,
	expected int64,
) (*VerificationReport, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	actual, err := counter.CountBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored %s rows: %w", source, err)
	}

	report := &VerificationReport{
		Source:           source,
		VerificationTime: start,
		Expected:         expected,
		Actual:           actual,
		Match:            expected == actual,
		Duration:         time.Since(start),
	}

	if report.Match {
		v.logger.Info("Row count verification successful",
			zap.String("source", source),
			zap.Int64("count", actual))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("source", source),
			zap.Int64("expected", expected),
			zap.Int64("actual", actual),
			zap.Int64("difference", expected-actual))
	}
	return report, nil
}

// VerifySampleRows reloads each sampled place and records the columns that
// differ from what was loaded. Results are appended to report.
func (v *Verifier) VerifySampleRows(
	ctx context.Context,
	reader PlaceReader,
	sample []*model.CanonicalPlace,
	report *VerificationReport,
) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	for _, want := range sample {
		got, err := reader.GetPlace(ctx, want.Key())
		if err != nil {
			report.SampleDiscrepancies = append(report.SampleDiscrepancies, RowDiscrepancy{
				Key:         want.Key(),
				Discrepancy: err.Error(),
			})
			continue
		}
		report.SampleDiscrepancies = append(report.SampleDiscrepancies, compareRows(want, got)...)
	}
	report.SampleSize += len(sample)

	if len(report.SampleDiscrepancies) > 0 {
		v.logger.Warn("Sample verification found discrepancies",
			zap.String("source", report.Source),
			zap.Int("sampleSize", report.SampleSize),
			zap.Int("discrepancies", len(report.SampleDiscrepancies)))
	}
	return nil
}

func compareRows(want, got *model.CanonicalPlace) []RowDiscrepancy {
	var out []RowDiscrepancy
	add := func(column string, expected, actual interface{}) {
		out = append(out, RowDiscrepancy{
			Key:         want.Key(),
			ColumnName:  column,
			Expected:    expected,
			Actual:      actual,
			Discrepancy: "value mismatch",
		})
	}

	expectedName := want.PlaceName
	if expectedName == "" {
		expectedName = model.UnnamedPlace
	}
	if expectedName != got.PlaceName {
		add("place_name", expectedName, got.PlaceName)
	}
	if !stringsEqual(want.PlaceType, got.PlaceType) {
		add("place_type", want.PlaceType, got.PlaceType)
	}
	if !floatsEqual(want.Latitude, got.Latitude) {
		add("latitude", want.Latitude, got.Latitude)
	}
	if !floatsEqual(want.Longitude, got.Longitude) {
		add("longitude", want.Longitude, got.Longitude)
	}
	if !stringsEqual(want.JoinedAlternateNames(), got.JoinedAlternateNames()) {
		add("alternate_names", want.JoinedAlternateNames(), got.JoinedAlternateNames())
	}
	return out
}

func stringsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// floatsEqual tolerates the rounding of DECIMAL sinks
func floatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < 1e-6
}
