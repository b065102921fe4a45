// pkg/transfer/loader.go
package transfer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// DefaultBatchSize is the number of places committed per transaction
const DefaultBatchSize = 1000

// Sink is the relational store an ingestion run writes to
type Sink interface {
	// InsertPlaces commits one batch atomically and returns the rows written
	InsertPlaces(ctx context.Context, places []*model.CanonicalPlace) (int64, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	CountBySource(ctx context.Context, source string) (int64, error)
	Close() error
}

// LoaderStats summarizes the batches a loader has issued
type LoaderStats struct {
	Batches   int
	Committed int
	Failed    int
	Loaded    int64
}

// BatchLoader groups places into fixed-size batches and commits each one in
// its own transaction. A failed batch is handled according to the policy.
type BatchLoader struct {
	sink         Sink
	source       string
	batchSize    int
	policy       BatchErrorPolicy
	errorHandler *ErrorHandler
	metrics      *IngestMetrics
	logger       *zap.Logger
	pending      []*model.CanonicalPlace
	stats        LoaderStats
	sample       []*model.CanonicalPlace
	maxSample    int
}

// NewBatchLoader creates a loader for one source. A nil error handler or
// metrics set gets a private one.
func NewBatchLoader(
	sink Sink,
	source string,
	policy BatchErrorPolicy,
	errorHandler *ErrorHandler,
	metrics *IngestMetrics,
	logger *zap.Logger,
) *BatchLoader {
	if errorHandler == nil {
		errorHandler = NewErrorHandler(logger)
	}
	if metrics == nil {
		metrics = NewIngestMetrics(nil)
	}
	return &BatchLoader{
		sink:         sink,
		source:       source,
		batchSize:    DefaultBatchSize,
		policy:       policy,
		errorHandler: errorHandler,
		metrics:      metrics,
		logger:       logger.With(zap.String("source", source)),
		pending:      make([]*model.CanonicalPlace, 0, DefaultBatchSize),
		maxSample:    20,
	}
}

// WithBatchSize sets the batch size for the loader
func (l *BatchLoader) WithBatchSize(batchSize int) *BatchLoader {
	if batchSize > 0 {
		l.batchSize = batchSize
	}
	return l
}

// Add queues one place and commits the batch once it is full
func (l *BatchLoader) Add(ctx context.Context, place *model.CanonicalPlace) error {
	l.pending = append(l.pending, place)
	if len(l.pending) >= l.batchSize {
		return l.Flush(ctx)
	}
	return nil
}

// LoadAll queues every place and flushes the tail batch
func (l *BatchLoader) LoadAll(ctx context.Context, places []*model.CanonicalPlace) error {
	for _, p := range places {
		if err := l.Add(ctx, p); err != nil {
			return err
		}
	}
	return l.Flush(ctx)
}

// Flush commits the pending places, if any. It returns an error only when
// the failure ends the run.
func (l *BatchLoader) Flush(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %d places not loaded: %w", l.source, len(l.pending), err)
	}

	batch := l.pending
	l.pending = make([]*model.CanonicalPlace, 0, l.batchSize)
	l.stats.Batches++
	number := l.stats.Batches

	start := time.Now()
	inserted, err := l.sink.InsertPlaces(ctx, batch)
	l.metrics.BatchDuration.WithLabelValues(l.source).Observe(time.Since(start).Seconds())

	if err != nil {
		l.stats.Failed++
		l.metrics.BatchesFailed.WithLabelValues(l.source).Inc()

		record := NewErrorRecord(err, l.errorHandler.CategorizeError(err)).
			WithSource(l.source).
			WithBatch(number, batch)
		if l.errorHandler.HandleError(record, l.policy) == ActionAbort {
			return fmt.Errorf("%w: %s batch %d: %w", ErrBatchAborted, l.source, number, err)
		}
		l.logger.Warn("Skipping failed batch",
			zap.Int("batch", number),
			zap.Int("size", len(batch)),
			zap.String("policy", l.policy.String()))
		return nil
	}

	l.stats.Committed++
	l.stats.Loaded += inserted
	l.metrics.BatchesCommitted.WithLabelValues(l.source).Inc()
	l.metrics.RecordsLoaded.WithLabelValues(l.source).Add(float64(inserted))
	if len(l.sample) < l.maxSample {
		l.sample = append(l.sample, batch[0])
	}

	l.logger.Debug("Committed batch",
		zap.Int("batch", number),
		zap.Int64("rows", inserted),
		zap.Int64("totalRows", l.stats.Loaded),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Stats returns the loader's counters
func (l *BatchLoader) Stats() LoaderStats {
	return l.stats
}

// Sample returns the first place of each committed batch, up to a limit
func (l *BatchLoader) Sample() []*model.CanonicalPlace {
	return l.sample
}
