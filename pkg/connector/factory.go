// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/config"
)

// ConnectorFactory opens stores against one sink configuration. Each call
// opens a fresh pool, so an ingestion run can reopen after a fatal batch.
type ConnectorFactory struct {
	sink   *config.SinkConfig
	logger *zap.Logger
}

func NewConnectorFactory(sink *config.SinkConfig, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{sink: sink, logger: logger}
}

// CreateConnector connects and checks the server answers a version query
func (f *ConnectorFactory) CreateConnector(ctx context.Context) (*SQLConnector, error) {
	conn, err := NewSQLConnector(ctx, f.sink, f.logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s sink: %w", f.sink.Driver, err)
	}
	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// CreatePlaceStore returns a store the caller must Close
func (f *ConnectorFactory) CreatePlaceStore(ctx context.Context) (*PlaceStore, error) {
	conn, err := f.CreateConnector(ctx)
	if err != nil {
		return nil, err
	}
	return NewPlaceStore(conn, f.logger), nil
}
