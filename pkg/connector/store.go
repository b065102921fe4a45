// pkg/connector/store.go
package connector

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/converter"
	"github.com/David-Botos/gazetteer/pkg/model"
	"github.com/David-Botos/gazetteer/pkg/placetype"
)

var (
	// ErrNotFound is returned when a place key has no stored row
	ErrNotFound = errors.New("place not found")
	// ErrForceRequired is returned when initialization would drop an existing table
	ErrForceRequired = errors.New("places table already exists, force is required to recreate it")
)

// TrainingColumns is the header of an exported training file
var TrainingColumns = model.TrainingColumns

// PlaceStore persists canonical places into the places table
type PlaceStore struct {
	conn        DatabaseConnector
	db          *sqlx.DB
	converter   *converter.TypeConverter
	metadata    *model.TableMetadata
	insertQuery string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewPlaceStore creates a store over an open connector
func NewPlaceStore(conn DatabaseConnector, logger *zap.Logger) *PlaceStore {
	metadata := model.PlacesMetadata()
	columns := metadata.InsertColumns()

	return &PlaceStore{
		conn:      conn,
		db:        conn.DB(),
		converter: converter.NewTypeConverter(logger, conn.Dialect()),
		metadata:  metadata,
		insertQuery: fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
			metadata.Table,
			strings.Join(columns, ", "),
			strings.Join(columns, ", :")),
		timeout: 5 * time.Minute,
		logger:  logger.Named("place-store"),
	}
}

// Close closes the underlying connection
func (s *PlaceStore) Close() error {
	return s.conn.Close()
}

// CreateSchema creates the places table. An existing table is only dropped
// and recreated empty when force is set, otherwise ErrForceRequired is returned.
func (s *PlaceStore) CreateSchema(ctx context.Context, force bool) error {
	exists := s.tableExists(ctx)
	if exists && !force {
		return fmt.Errorf("%s: %w", s.metadata.Table, ErrForceRequired)
	}

	if exists {
		s.logger.Warn("Dropping existing table", zap.String("table", s.metadata.Table))
		if _, err := s.conn.ExecWithTimeout(ctx, s.converter.GenerateDropTable(s.metadata), s.timeout); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", s.metadata.Table, err)
		}
	}

	stmt, err := s.converter.GenerateCreateTable(s.metadata)
	if err != nil {
		return err
	}
	if _, err := s.conn.ExecWithTimeout(ctx, stmt, s.timeout); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.metadata.Table, err)
	}

	s.logger.Info("Created table", zap.String("table", s.metadata.Table))
	return nil
}

func (s *PlaceStore) tableExists(ctx context.Context) bool {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE 1 = 0", s.metadata.Table))
	if err != nil {
		return false
	}
	rows.Close()
	return true
}

// InsertPlaces writes one batch in a single transaction. On error nothing
// from the batch is committed.
func (s *PlaceStore) InsertPlaces(ctx context.Context, places []*model.CanonicalPlace) (int64, error) {
	if len(places) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("Failed to roll back batch", zap.Error(rbErr))
			}
		}
	}()

	result, err := tx.NamedExecContext(ctx, s.insertQuery, s.converter.ToRows(places))
	if err != nil {
		return 0, fmt.Errorf("batch insert failed: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	inserted, raErr := result.RowsAffected()
	if raErr != nil {
		s.logger.Warn("Couldn't get rows affected", zap.Error(raErr))
		inserted = int64(len(places))
	}
	return inserted, nil
}

// DeleteBySource removes every row of a source, for reimports
func (s *PlaceStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	query := s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE source = ?", s.metadata.Table))
	result, err := s.conn.ExecWithTimeout(ctx, query, s.timeout, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s rows: %w", source, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted %s rows: %w", source, err)
	}
	s.logger.Info("Deleted rows by source", zap.String("source", source), zap.Int64("rows", deleted))
	return deleted, nil
}

// CountBySource returns the number of stored rows of a source
func (s *PlaceStore) CountBySource(ctx context.Context, source string) (int64, error) {
	var count int64
	query := s.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE source = ?", s.metadata.Table))
	if err := s.db.QueryRowxContext(ctx, query, source).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", source, err)
	}
	return count, nil
}

// GetPlace loads one stored place by natural key
func (s *PlaceStore) GetPlace(ctx context.Context, key model.Key) (*model.CanonicalPlace, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT original_source_id, source, place_name, place_type,
		latitude, longitude, parent_id, alternate_names
		FROM %s WHERE original_source_id = ? AND source = ?`, s.metadata.Table))

	var row converter.PlaceRow
	err := s.db.QueryRowxContext(ctx, query, key.OriginalSourceID, key.Source).Scan(
		&row.OriginalSourceID, &row.Source, &row.PlaceName, &row.PlaceType,
		&row.Latitude, &row.Longitude, &row.ParentID, &row.AlternateNames)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return row.ToCanonical(), nil
}

// TranslatePlaceTypes rewrites the stored place types of a source through
// the translation table and clears the ones outside it, in one transaction
func (s *PlaceStore) TranslatePlaceTypes(ctx context.Context, source string, mappings []placetype.Mapping) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := tx.Rebind(fmt.Sprintf(
		"UPDATE %s SET place_type = ?, updated_at = CURRENT_TIMESTAMP WHERE source = ? AND place_type = ?",
		s.metadata.Table))

	var total int64
	targets := make([]string, 0, len(mappings))
	for _, m := range mappings {
		targets = append(targets, m.To)
		result, err := tx.ExecContext(ctx, update, m.To, source, m.From)
		if err != nil {
			return 0, fmt.Errorf("failed to translate %q: %w", m.From, err)
		}
		n, _ := result.RowsAffected()
		total += n
		s.logger.Debug("Translated place type",
			zap.String("from", m.From),
			zap.String("to", m.To),
			zap.Int64("rows", n))
	}

	if len(targets) > 0 {
		clearQuery, args, err := sqlx.In(fmt.Sprintf(
			"UPDATE %s SET place_type = NULL, updated_at = CURRENT_TIMESTAMP WHERE source = ? AND place_type IS NOT NULL AND place_type NOT IN (?)",
			s.metadata.Table), source, targets)
		if err != nil {
			return 0, fmt.Errorf("failed to build unmapped type query: %w", err)
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(clearQuery), args...)
		if err != nil {
			return 0, fmt.Errorf("failed to clear unmapped place types: %w", err)
		}
		n, _ := result.RowsAffected()
		total += n
		s.logger.Info("Cleared unmapped place types", zap.String("source", source), zap.Int64("rows", n))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit translation: %w", err)
	}
	return total, nil
}

// ExportTrainingRows writes every located place as CSV with TrainingColumns.
// An empty sources list exports all sources.
func (s *PlaceStore) ExportTrainingRows(ctx context.Context, w io.Writer, sources ...string) (int, error) {
	query := fmt.Sprintf(`SELECT place_name, place_type, latitude, longitude, alternate_names
		FROM %s WHERE latitude IS NOT NULL AND longitude IS NOT NULL`, s.metadata.Table)
	var args []interface{}
	if len(sources) > 0 {
		var err error
		query, args, err = sqlx.In(query+" AND source IN (?)", sources)
		if err != nil {
			return 0, fmt.Errorf("failed to build export query: %w", err)
		}
	}
	query += " ORDER BY source, original_source_id"

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to query training rows: %w", err)
	}
	defer rows.Close()

	out := csv.NewWriter(w)
	if err := out.Write(TrainingColumns); err != nil {
		return 0, err
	}

	exported := 0
	for rows.Next() {
		var row converter.PlaceRow
		if err := rows.Scan(&row.PlaceName, &row.PlaceType, &row.Latitude, &row.Longitude, &row.AlternateNames); err != nil {
			return exported, fmt.Errorf("failed to scan training row: %w", err)
		}
		if err := out.Write([]string{
			row.PlaceName,
			row.PlaceType.String,
			strconv.FormatFloat(row.Latitude.Float64, 'f', -1, 64),
			strconv.FormatFloat(row.Longitude.Float64, 'f', -1, 64),
			row.AlternateNames.String,
		}); err != nil {
			return exported, err
		}
		exported++
	}
	if err := rows.Err(); err != nil {
		return exported, fmt.Errorf("failed to read training rows: %w", err)
	}

	out.Flush()
	return exported, out.Error()
}
