// pkg/cleaner/cleaner.go
package cleaner

import (
	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// DataCleaner keeps track of the values normalizers rewrote or discarded
// during one ingestion run
type DataCleaner struct {
	logger     *zap.Logger
	counts     map[string]int
	samples    []model.CleaningOperation
	maxSamples int
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger) *DataCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataCleaner{
		logger:     logger,
		counts:     make(map[string]int),
		maxSamples: 20,
	}
}

// Record notes a cleaning operation. Calling it on a nil cleaner is a no-op
// so normalizers can be used without tracking.
func (c *DataCleaner) Record(op model.CleaningOperation) {
	if c == nil {
		return
	}

	c.counts[op.Operation]++
	if len(c.samples) < c.maxSamples {
		c.samples = append(c.samples, op)
	}

	c.logger.Debug("Cleaned value",
		zap.String("source", op.Source),
		zap.String("record", op.RecordID),
		zap.String("field", op.Field),
		zap.String("operation", op.Operation),
		zap.String("original", op.OriginalValue))
}

// Counts returns the number of operations per type
func (c *DataCleaner) Counts() map[string]int {
	if c == nil {
		return nil
	}
	counts := make(map[string]int, len(c.counts))
	for op, n := range c.counts {
		counts[op] = n
	}
	return counts
}

// Samples returns the first recorded operations
func (c *DataCleaner) Samples() []model.CleaningOperation {
	if c == nil {
		return nil
	}
	samples := make([]model.CleaningOperation, len(c.samples))
	copy(samples, c.samples)
	return samples
}

// LogSummary writes one line per operation type
func (c *DataCleaner) LogSummary() {
	if c == nil {
		return
	}
	for op, n := range c.counts {
		c.logger.Info("Cleaning summary",
			zap.String("operation", op),
			zap.Int("count", n))
	}
}

// CleanAlternateNames cleans every term and drops the empty ones, recording
// each rewrite against the record
func (c *DataCleaner) CleanAlternateNames(source, recordID string, raw []string) []string {
	var names []string
	for _, term := range raw {
		if IsNull(term) {
			continue
		}
		cleaned, removedBackslash, escapedDelimiter := CleanTerm(term)
		if removedBackslash {
			c.Record(model.CleaningOperation{
				Source: source, RecordID: recordID, Field: "alternate_names",
				OriginalValue: term, Operation: model.OpBackslashRemoved,
			})
		}
		if escapedDelimiter {
			c.Record(model.CleaningOperation{
				Source: source, RecordID: recordID, Field: "alternate_names",
				OriginalValue: term, Operation: model.OpDelimiterEscaped,
			})
		}
		if cleaned != "" {
			names = append(names, cleaned)
		}
	}
	return names
}
