// Package dashboard is the terminal client of the traffic service: it seeds
// itself from the query API, follows the live feed and falls back to an
// explicitly labelled offline simulation when no traffic data shows up.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"store-traffic-service/internal/model"
)

// Source is the query side of the traffic service.
type Source interface {
	Recent(ctx context.Context, limit int) ([]model.TrafficEvent, error)
	Hourly(ctx context.Context) ([]model.HourlyBucket, error)
	Status(ctx context.Context) (*ServiceStatus, error)
}

type Options struct {
	StoreID            int
	GracePeriod        time.Duration
	SimulationInterval time.Duration
	HourlyPollInterval time.Duration
	RenderInterval     time.Duration
	ClearScreen        bool
	Now                func() time.Time
}

// fetchResult is handed from a query goroutine back to the Run loop.
type fetchResult struct {
	full     bool
	recent   []model.TrafficEvent
	hourly   []model.HourlyBucket
	database string
}

func (r fetchResult) hasData() bool {
	return len(r.recent) > 0 || len(r.hourly) > 0
}

type Dashboard struct {
	source Source
	feed   Feed
	sim    *Simulator
	opts   Options
	out    io.Writer
	log    zerolog.Logger

	state      *LiveFeed
	connected  bool
	simulating bool
	received   bool
	database   string

	loading  bool
	polling  bool
	pending  []model.TrafficEvent
	simTimer *time.Ticker

	events  chan model.TrafficEvent
	states  chan bool
	fetched chan fetchResult
}

func New(source Source, feed Feed, sim *Simulator, opts Options, out io.Writer, log zerolog.Logger) *Dashboard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dashboard{
		source:  source,
		feed:    feed,
		sim:     sim,
		opts:    opts,
		out:     out,
		log:     log,
		state:   NewLiveFeed(),
		events:  make(chan model.TrafficEvent, LiveCapacity),
		states:  make(chan bool, 1),
		fetched: make(chan fetchResult, 1),
	}
}

// Run owns all dashboard state until ctx is cancelled. Feed callbacks and
// query goroutines only hand values over to this loop, so a slow server never
// delays the grace period or live events.
func (d *Dashboard) Run(ctx context.Context) error {
	grace := time.NewTimer(d.opts.GracePeriod)
	defer grace.Stop()

	runCtx, cancel := context.WithCancel(ctx)

	token, err := d.feed.Subscribe(runCtx, Handler{
		Event: func(event model.TrafficEvent) {
			select {
			case d.events <- event:
			case <-runCtx.Done():
			}
		},
		State: func(connected bool) {
			select {
			case d.states <- connected:
			case <-runCtx.Done():
			}
		},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to live feed: %w", err)
	}
	defer func() {
		cancel()
		if err := d.feed.Unsubscribe(token); err != nil {
			d.log.Warn().Err(err).Msg("failed to unsubscribe from live feed")
		}
	}()

	d.startLoad(runCtx)

	render := time.NewTicker(d.opts.RenderInterval)
	defer render.Stop()

	var (
		poll  *time.Ticker
		pollC <-chan time.Time
	)
	stopPoll := func() {
		if poll != nil {
			poll.Stop()
			poll, pollC = nil, nil
		}
	}
	defer stopPoll()
	defer d.stopSimulation()

	d.render()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-d.events:
			d.received = true
			if d.simulating {
				d.stopSimulation()
				d.state.Seed(nil, nil)
				d.startLoad(runCtx)
			}
			if d.loading {
				d.pending = append(d.pending, event)
			}
			d.state.Apply(event)
			d.render()

		case connected := <-d.states:
			d.connected = connected
			if connected {
				if poll == nil {
					poll = time.NewTicker(d.opts.HourlyPollInterval)
					pollC = poll.C
				}
				if d.simulating {
					d.startLoad(runCtx)
				}
			} else {
				stopPoll()
			}
			d.render()

		case result := <-d.fetched:
			d.applyFetch(result)
			d.render()

		case <-pollC:
			d.startPoll(runCtx)

		case <-grace.C:
			if d.received || d.simulating {
				continue
			}
			d.log.Warn().Dur("grace_period", d.opts.GracePeriod).Msg("no traffic data received, switching to offline simulation")
			d.startSimulation()
			d.render()

		case <-d.simulationC():
			if event, ok := d.sim.Live(d.opts.Now()); ok {
				d.state.Apply(event)
			}

		case <-render.C:
			d.render()
		}
	}
}

// Snapshot is only meaningful from inside the Run loop or after it returned.
func (d *Dashboard) Snapshot() Snapshot {
	snap := d.state.Snapshot()
	snap.Status = d.status()
	snap.StoreID = d.opts.StoreID
	snap.Database = d.database
	snap.UpdatedAt = d.opts.Now()
	return snap
}

func (d *Dashboard) status() Status {
	switch {
	case d.simulating:
		return StatusOfflineSimulation
	case d.connected:
		return StatusConnected
	default:
		return StatusDisconnected
	}
}

func (d *Dashboard) startSimulation() {
	d.simulating = true
	d.state.Seed(nil, d.sim.History(d.opts.Now()))
	d.simTimer = time.NewTicker(d.opts.SimulationInterval)
}

func (d *Dashboard) stopSimulation() {
	d.simulating = false
	if d.simTimer != nil {
		d.simTimer.Stop()
		d.simTimer = nil
	}
}

func (d *Dashboard) simulationC() <-chan time.Time {
	if d.simTimer == nil {
		return nil
	}
	return d.simTimer.C
}

// startLoad fetches recent events, hourly history and server status in the
// background. At most one load is in flight.
func (d *Dashboard) startLoad(ctx context.Context) {
	if d.loading {
		return
	}
	d.loading = true
	d.pending = nil

	go func() {
		result := fetchResult{full: true}

		recent, err := d.source.Recent(ctx, LiveCapacity)
		if err != nil {
			d.log.Warn().Err(err).Msg("failed to load recent traffic")
		}
		result.recent = recent

		hourly, err := d.source.Hourly(ctx)
		if err != nil {
			d.log.Warn().Err(err).Msg("failed to load hourly traffic")
		}
		result.hourly = hourly
		result.database = d.fetchDatabase(ctx)

		d.deliver(ctx, result)
	}()
}

func (d *Dashboard) startPoll(ctx context.Context) {
	if d.polling {
		return
	}
	d.polling = true

	go func() {
		hourly, err := d.source.Hourly(ctx)
		if err != nil {
			d.log.Warn().Err(err).Msg("failed to refresh hourly traffic")
			hourly = nil
		}
		d.deliver(ctx, fetchResult{hourly: hourly, database: d.fetchDatabase(ctx)})
	}()
}

func (d *Dashboard) fetchDatabase(ctx context.Context) string {
	status, err := d.source.Status(ctx)
	if err != nil {
		d.log.Debug().Err(err).Msg("failed to load service status")
		return ""
	}
	return status.Database
}

func (d *Dashboard) deliver(ctx context.Context, result fetchResult) {
	select {
	case d.fetched <- result:
	case <-ctx.Done():
	}
}

func (d *Dashboard) applyFetch(result fetchResult) {
	if result.database != "" {
		d.database = result.database
	}

	if !result.full {
		d.polling = false
		// a failed poll leaves the current history alone
		if !d.simulating && result.hourly != nil {
			d.state.ReplaceHourly(result.hourly)
		}
		return
	}

	d.loading = false
	pending := d.pending
	d.pending = nil

	if !result.hasData() {
		// nothing real to show yet, synthetic data stays on screen
		return
	}

	d.received = true
	d.stopSimulation()
	d.state.Seed(result.recent, result.hourly)

	seen := make(map[uuid.UUID]struct{}, len(result.recent))
	for _, event := range result.recent {
		seen[event.ID] = struct{}{}
	}
	for _, event := range pending {
		if _, ok := seen[event.ID]; ok && event.ID != uuid.Nil {
			continue
		}
		d.state.Apply(event)
	}
}

func (d *Dashboard) render() {
	if d.out == nil {
		return
	}
	if d.opts.ClearScreen {
		fmt.Fprint(d.out, "\033[H\033[2J")
	}
	if err := Render(d.out, d.Snapshot()); err != nil {
		d.log.Debug().Err(err).Msg("render failed")
	}
}
