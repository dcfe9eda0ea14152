package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"store-traffic-service/internal/model"
)

const (
	DefaultRecentLimit = 10
	DefaultMaxRecent   = 100
	hourlyWindow       = 24 * time.Hour
)

type TrafficService struct {
	reader   TrafficReader
	location *time.Location
	maxLimit int
	now      func() time.Time
}

func NewTrafficService(reader TrafficReader, location *time.Location, maxLimit int) *TrafficService {
	if location == nil {
		location = time.UTC
	}
	if maxLimit < 1 {
		maxLimit = DefaultMaxRecent
	}
	return &TrafficService{
		reader:   reader,
		location: location,
		maxLimit: maxLimit,
		now:      time.Now,
	}
}

// Hourly rolls up the trailing 24 hours into calendar-hour buckets.
func (s *TrafficService) Hourly(ctx context.Context) ([]model.HourlyBucket, error) {
	return s.HourlyAt(ctx, s.now())
}

// HourlyAt is Hourly with an explicit reference instant. Hours without
// events are left out.
func (s *TrafficService) HourlyAt(ctx context.Context, now time.Time) ([]model.HourlyBucket, error) {
	events, err := s.reader.Since(ctx, now.Add(-hourlyWindow))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return BucketByHour(events, s.location), nil
}

// Recent returns up to limit events, newest first. A non-positive limit means
// the default, anything above the cap is clamped.
func (s *TrafficService) Recent(ctx context.Context, limit int) ([]model.TrafficEvent, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, s.maxLimit)

	events, err := s.reader.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return events, nil
}

type hourKey struct {
	year  int
	month time.Month
	day   int
	hour  int
}

// BucketByHour groups events by (year, month, day, hour) in loc and returns
// the buckets in ascending order.
func BucketByHour(events []model.TrafficEvent, loc *time.Location) []model.HourlyBucket {
	buckets := make(map[hourKey]*model.HourlyBucket)

	for _, event := range events {
		local := event.TimeStamp.In(loc)
		key := hourKey{year: local.Year(), month: local.Month(), day: local.Day(), hour: local.Hour()}

		bucket, ok := buckets[key]
		if !ok {
			start := time.Date(key.year, key.month, key.day, key.hour, 0, 0, 0, loc)
			bucket = &model.HourlyBucket{
				Start: start,
				Hour:  start.Format(model.HourLabelLayout),
			}
			buckets[key] = bucket
		}

		bucket.CustomersIn += event.CustomersIn
		bucket.CustomersOut += event.CustomersOut
		bucket.Count++
	}

	out := make([]model.HourlyBucket, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.NetChange = bucket.CustomersIn - bucket.CustomersOut
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
