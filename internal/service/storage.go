package service

import (
	"context"
	"time"

	"store-traffic-service/internal/model"
)

// TrafficWriter is the durable side of the event sink.
type TrafficWriter interface {
	Create(ctx context.Context, event *model.TrafficEvent) error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
}

// TrafficReader serves the hourly and recent queries.
type TrafficReader interface {
	Recent(ctx context.Context, limit int) ([]model.TrafficEvent, error)
	Since(ctx context.Context, from time.Time) ([]model.TrafficEvent, error)
}

// OccupancySource re-derives occupancy from persisted history.
type OccupancySource interface {
	TotalsByStore(ctx context.Context, storeIDs []int) ([]model.StoreTotals, error)
}

// UnavailableStorage stands in for the repository when no database is
// configured. Every call fails, which keeps the sink degraded for the
// lifetime of the process.
type UnavailableStorage struct{}

func (UnavailableStorage) Create(context.Context, *model.TrafficEvent) error {
	return ErrStorageUnavailable
}

func (UnavailableStorage) Ping(context.Context) error {
	return ErrStorageUnavailable
}

func (UnavailableStorage) Migrate(context.Context) error {
	return ErrStorageUnavailable
}

func (UnavailableStorage) Recent(context.Context, int) ([]model.TrafficEvent, error) {
	return nil, ErrStorageUnavailable
}

func (UnavailableStorage) Since(context.Context, time.Time) ([]model.TrafficEvent, error) {
	return nil, ErrStorageUnavailable
}

func (UnavailableStorage) TotalsByStore(context.Context, []int) ([]model.StoreTotals, error) {
	return nil, ErrStorageUnavailable
}
