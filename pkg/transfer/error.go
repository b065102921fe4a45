// pkg/transfer/error.go
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/connector"
	"github.com/David-Botos/gazetteer/pkg/model"
	"github.com/David-Botos/gazetteer/pkg/source"
)

// ErrBatchAborted is returned when a failed batch stops a run under AbortOnBatchError
var ErrBatchAborted = errors.New("ingestion aborted after batch failure")

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionSkipRecord indicates the current record should be skipped
	ActionSkipRecord
	// ActionAbort indicates the entire run should be aborted
	ActionAbort
)

// ErrorCategory defines categories of errors during ingestion
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryRecordLevel invalidates a single source record
	ErrorCategoryRecordLevel
	// ErrorCategoryBatchLevel invalidates one batch transaction
	ErrorCategoryBatchLevel
	// ErrorCategoryFatal ends the run
	ErrorCategoryFatal
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryRecordLevel:
		return "RecordLevel"
	case ErrorCategoryBatchLevel:
		return "BatchLevel"
	case ErrorCategoryFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during ingestion
type ErrorRecord struct {
	Category  ErrorCategory
	Source    string
	RecordID  string
	Batch     int
	Keys      []model.Key // sample of the keys in a failed batch
	Error     error
	Message   string
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}
	if err != nil {
		record.Message = err.Error()
	}
	return record
}

// WithSource adds the source code to the error record
func (r ErrorRecord) WithSource(source string) ErrorRecord {
	r.Source = source
	return r
}

// WithRecord adds the offending record's identifier
func (r ErrorRecord) WithRecord(recordID string) ErrorRecord {
	r.RecordID = recordID
	return r
}

// WithBatch adds the batch number and up to sampleKeys keys of its places
func (r ErrorRecord) WithBatch(batch int, places []*model.CanonicalPlace) ErrorRecord {
	r.Batch = batch
	n := len(places)
	if n > sampleKeys {
		n = sampleKeys
	}
	r.Keys = make([]model.Key, 0, n)
	for _, p := range places[:n] {
		r.Keys = append(r.Keys, p.Key())
	}
	return r
}

// String renders the record for the run report
func (r ErrorRecord) String() string {
	parts := []string{"[" + r.Category.String() + "]"}
	if r.Source != "" {
		parts = append(parts, "Source: "+r.Source)
	}
	if r.RecordID != "" {
		parts = append(parts, "Record: "+r.RecordID)
	}
	if r.Batch > 0 {
		parts = append(parts, fmt.Sprintf("Batch: %d", r.Batch))
		if len(r.Keys) > 0 {
			keys := make([]string, len(r.Keys))
			for i, k := range r.Keys {
				keys[i] = k.String()
			}
			parts = append(parts, "Keys: "+strings.Join(keys, ","))
		}
	}
	msg := r.Message
	if r.Error != nil {
		msg = r.Error.Error()
	}
	if msg != "" {
		parts = append(parts, "Error: "+msg)
	}
	return strings.Join(parts, " ")
}

const (
	maxSamples = 5
	sampleKeys = 5
)

// ErrorHandler counts errors per category and keeps a few samples of each
// for the run summary
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	mu           sync.Mutex
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		maxSamples:   maxSamples,
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var category ErrorCategory
	switch {
	case source.IsRecordError(err):
		category = ErrorCategoryRecordLevel
	case errors.Is(err, context.Canceled), connector.IsConnectionError(err):
		category = ErrorCategoryFatal
	default:
		category = ErrorCategoryBatchLevel
	}

	if eh.logger != nil {
		eh.logger.Debug("Categorized error",
			zap.String("error", err.Error()),
			zap.String("category", category.String()))
	}
	return category
}

// HandleError records the error and decides what the run does next
func (eh *ErrorHandler) HandleError(record ErrorRecord, policy BatchErrorPolicy) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone:
		return ActionContinue
	case ErrorCategoryRecordLevel:
		return ActionSkipRecord
	case ErrorCategoryBatchLevel:
		if policy == AbortOnBatchError {
			return ActionAbort
		}
		return ActionContinue
	default:
		return ActionAbort
	}
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	samples := eh.sampleErrors[record.Category]
	if len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}

	if eh.logger == nil {
		return
	}

	level := zap.WarnLevel
	switch record.Category {
	case ErrorCategoryRecordLevel:
		level = zap.DebugLevel
	case ErrorCategoryBatchLevel, ErrorCategoryFatal:
		level = zap.ErrorLevel
	}

	fields := []zap.Field{
		zap.String("category", record.Category.String()),
		zap.String("source", record.Source),
		zap.String("error", record.Message),
	}
	if record.RecordID != "" {
		fields = append(fields, zap.String("record", record.RecordID))
	}
	if record.Batch > 0 {
		fields = append(fields, zap.Int("batch", record.Batch), zap.Stringers("keys", record.Keys))
	}
	if connector.IsConstraintViolation(record.Error) {
		fields = append(fields, zap.String("reason", "constraint violation"))
	}
	eh.logger.Log(level, "Ingestion error", fields...)
}

// GetErrorSummary returns a copy of the error counts per category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		categorySamples := make([]ErrorRecord, len(records))
		copy(categorySamples, records)
		samples[category] = categorySamples
	}
	return samples
}

// Count returns the number of errors seen in one category
func (eh *ErrorHandler) Count(category ErrorCategory) int {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	return eh.errorCounts[category]
}
