package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"store-traffic-service/internal/metrics"
	"store-traffic-service/internal/model"
)

const (
	writeTimeout = 5 * time.Second
	pingTimeout  = 3 * time.Second
)

// StorageSink persists traffic events on a best-effort basis. It starts
// degraded and flips to connected once a health check succeeds; a failed
// write or ping flips it back. Events offered while degraded are dropped.
type StorageSink struct {
	store     TrafficWriter
	degraded  atomic.Bool
	recovered chan struct{}
	interval  time.Duration
	log       zerolog.Logger
}

func NewStorageSink(store TrafficWriter, interval time.Duration, log zerolog.Logger) *StorageSink {
	s := &StorageSink{
		store:     store,
		recovered: make(chan struct{}, 1),
		interval:  interval,
		log:       log.With().Str("component", "event-sink").Logger(),
	}
	s.degraded.Store(true)
	metrics.StorageDegraded.Set(1)
	return s
}

func (s *StorageSink) State() model.ConnState {
	if s.degraded.Load() {
		return model.ConnStateDegraded
	}
	return model.ConnStateConnected
}

// Recovered fires each time storage goes from degraded to connected.
func (s *StorageSink) Recovered() <-chan struct{} {
	return s.recovered
}

func (s *StorageSink) Persist(ctx context.Context, event model.TrafficEvent) error {
	if s.degraded.Load() {
		metrics.EventsSkippedDegraded.Inc()
		return ErrStorageDegraded
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := s.store.Create(writeCtx, &event); err != nil {
		metrics.EventsPersistFailed.Inc()
		s.markDegraded(err)
		return fmt.Errorf("persist traffic event: %w", err)
	}

	metrics.EventsPersisted.Inc()
	return nil
}

// Check probes storage once and applies the resulting state transition.
func (s *StorageSink) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.store.Ping(pingCtx); err != nil {
		s.markDegraded(err)
		return
	}

	if !s.degraded.Load() {
		return
	}

	if err := s.store.Migrate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("storage reachable but schema migration failed")
		return
	}

	if s.degraded.CompareAndSwap(true, false) {
		metrics.StorageDegraded.Set(0)
		s.log.Info().Msg("storage connection established, persisting events")
		select {
		case s.recovered <- struct{}{}:
		default:
		}
	}
}

// Watch runs Check immediately and then on every interval until ctx ends.
func (s *StorageSink) Watch(ctx context.Context) error {
	s.Check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *StorageSink) markDegraded(err error) {
	if s.degraded.CompareAndSwap(false, true) {
		metrics.StorageDegraded.Set(1)
		s.log.Warn().Err(err).Msg("storage connection lost, events will be broadcast but not saved")
	}
}
