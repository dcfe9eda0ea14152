package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"store-traffic-service/internal/db"
	"store-traffic-service/internal/model"
)

type TrafficRepository struct {
	db *gorm.DB
}

func NewTrafficRepository(db *gorm.DB) *TrafficRepository {
	return &TrafficRepository{db: db}
}

func (r *TrafficRepository) Create(ctx context.Context, event *model.TrafficEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// Recent returns the newest events first.
func (r *TrafficRepository) Recent(ctx context.Context, limit int) ([]model.TrafficEvent, error) {
	var events []model.TrafficEvent
	err := r.db.WithContext(ctx).
		Order("time_stamp DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Since returns every event at or after from, oldest first.
func (r *TrafficRepository) Since(ctx context.Context, from time.Time) ([]model.TrafficEvent, error) {
	var events []model.TrafficEvent
	err := r.db.WithContext(ctx).
		Where("time_stamp >= ?", from.UTC()).
		Order("time_stamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// TotalsByStore sums customers in and out per store over the whole history.
func (r *TrafficRepository) TotalsByStore(ctx context.Context, storeIDs []int) ([]model.StoreTotals, error) {
	var totals []model.StoreTotals
	query := r.db.WithContext(ctx).
		Model(&model.TrafficEvent{}).
		Select("store_id, COALESCE(SUM(customers_in), 0) AS total_in, COALESCE(SUM(customers_out), 0) AS total_out").
		Group("store_id")
	if len(storeIDs) > 0 {
		query = query.Where("store_id IN ?", storeIDs)
	}
	if err := query.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *TrafficRepository) Ping(ctx context.Context) error {
	return db.Ping(ctx, r.db)
}

func (r *TrafficRepository) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, r.db)
}
