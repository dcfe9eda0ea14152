package service

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"store-traffic-service/internal/metrics"
	"store-traffic-service/internal/model"
)

const (
	DefaultMaxIn             = 3
	DefaultGeneratorInterval = 10 * time.Second
	resyncTimeout            = 10 * time.Second
)

// Sampler draws a customer count in [0, upper].
type Sampler interface {
	Draw(upper int) int
}

// EventSink is the durable side of a generation step.
type EventSink interface {
	Persist(ctx context.Context, event model.TrafficEvent) error
}

type GeneratorOptions struct {
	StoreIDs []int
	MaxIn    int
	Interval time.Duration
	Now      func() time.Time
}

// Generator produces synthetic store traffic on a fixed tick. Each emitted
// event is offered to the sink and then broadcast, whatever the sink said.
type Generator struct {
	occupancy   *Occupancy
	sampler     Sampler
	sink        EventSink
	broadcaster Broadcaster
	history     OccupancySource
	storeIDs    []int
	maxIn       int
	interval    time.Duration
	now         func() time.Time
	snapshot    atomic.Pointer[map[int]int]
	log         zerolog.Logger
}

func NewGenerator(
	opts GeneratorOptions,
	sampler Sampler,
	sink EventSink,
	broadcaster Broadcaster,
	history OccupancySource,
	log zerolog.Logger,
) *Generator {
	if opts.MaxIn < 1 {
		opts.MaxIn = DefaultMaxIn
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultGeneratorInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	g := &Generator{
		occupancy:   NewOccupancy(opts.StoreIDs),
		sampler:     sampler,
		sink:        sink,
		broadcaster: broadcaster,
		history:     history,
		storeIDs:    append([]int(nil), opts.StoreIDs...),
		maxIn:       opts.MaxIn,
		interval:    opts.Interval,
		now:         opts.Now,
		log:         log.With().Str("component", "generator").Logger(),
	}
	g.publishSnapshot()
	return g
}

// Occupancy returns the counts as of the last completed step. Safe to call
// from any goroutine.
func (g *Generator) Occupancy() map[int]int {
	snap := g.snapshot.Load()
	out := make(map[int]int, len(*snap))
	for id, count := range *snap {
		out[id] = count
	}
	return out
}

// Run ticks until ctx is cancelled. A value on recovered triggers an
// occupancy rebuild from persisted history before the next tick.
func (g *Generator) Run(ctx context.Context, recovered <-chan struct{}) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.log.Info().Dur("interval", g.interval).Ints("stores", g.storeIDs).Msg("generator started")

	for {
		select {
		case <-ctx.Done():
			g.log.Info().Msg("generator stopped")
			return ctx.Err()
		case <-recovered:
			g.Resync(ctx)
		case <-ticker.C:
			g.Step(ctx)
		}
	}
}

// Step runs one tick for every configured store and returns what it emitted.
func (g *Generator) Step(ctx context.Context) []model.TrafficEvent {
	var emitted []model.TrafficEvent
	for _, storeID := range g.storeIDs {
		event, ok := g.next(storeID)
		if !ok {
			continue
		}
		g.emit(ctx, event)
		emitted = append(emitted, event)
	}
	g.publishSnapshot()
	return emitted
}

// Resync replaces tracked occupancy with Σin − Σout from storage, floored at 0.
func (g *Generator) Resync(ctx context.Context) {
	resyncCtx, cancel := context.WithTimeout(ctx, resyncTimeout)
	defer cancel()

	totals, err := g.history.TotalsByStore(resyncCtx, g.storeIDs)
	if err != nil {
		g.log.Error().Err(err).Msg("failed to re-derive store occupancy")
		return
	}

	byStore := make(map[int]model.StoreTotals, len(totals))
	for _, total := range totals {
		byStore[total.StoreID] = total
	}
	for _, storeID := range g.storeIDs {
		total := byStore[storeID]
		g.occupancy.Reset(storeID, max(0, total.TotalIn-total.TotalOut))
	}
	g.publishSnapshot()

	g.log.Info().Interface("occupancy", g.occupancy.Snapshot()).Msg("store occupancy initialized from history")
}

func (g *Generator) next(storeID int) (model.TrafficEvent, bool) {
	customersIn := g.sampler.Draw(g.maxIn)

	maxOut := min(g.occupancy.Bound(storeID), g.maxIn)
	customersOut := 0
	if maxOut > 0 {
		customersOut = g.sampler.Draw(maxOut)
	}

	if customersIn == 0 && customersOut == 0 {
		return model.TrafficEvent{}, false
	}

	g.occupancy.Apply(storeID, customersIn-customersOut)

	return model.TrafficEvent{
		ID:           uuid.New(),
		StoreID:      storeID,
		CustomersIn:  customersIn,
		CustomersOut: customersOut,
		TimeStamp:    g.now().UTC(),
	}, true
}

func (g *Generator) emit(ctx context.Context, event model.TrafficEvent) {
	metrics.EventsGenerated.WithLabelValues(strconv.Itoa(event.StoreID)).Inc()

	if err := g.sink.Persist(ctx, event); err != nil {
		if errors.Is(err, ErrStorageDegraded) {
			g.log.Debug().Int("store_id", event.StoreID).Msg("storage degraded, event not saved")
		} else {
			g.log.Error().Err(err).Int("store_id", event.StoreID).Msg("error saving traffic event")
		}
	}

	if err := g.broadcaster.Broadcast(ctx, event); err != nil {
		g.log.Warn().Err(err).Int("store_id", event.StoreID).Msg("broadcast incomplete")
	}

	g.log.Debug().
		Int("store_id", event.StoreID).
		Int("customers_in", event.CustomersIn).
		Int("customers_out", event.CustomersOut).
		Int("occupancy", g.occupancy.Get(event.StoreID)).
		Msg("emitted traffic event")
}

func (g *Generator) publishSnapshot() {
	snap := g.occupancy.Snapshot()
	g.snapshot.Store(&snap)
}
