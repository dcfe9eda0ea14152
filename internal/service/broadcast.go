package service

import (
	"context"
	"errors"
	"fmt"

	"store-traffic-service/internal/metrics"
	"store-traffic-service/internal/model"
)

// Broadcaster delivers a generated event to live consumers.
type Broadcaster interface {
	Broadcast(ctx context.Context, event model.TrafficEvent) error
}

type BroadcasterFunc func(ctx context.Context, event model.TrafficEvent) error

func (f BroadcasterFunc) Broadcast(ctx context.Context, event model.TrafficEvent) error {
	return f(ctx, event)
}

type broadcastTarget struct {
	name string
	b    Broadcaster
}

// FanOut forwards every event to each target in registration order. A failing
// target does not stop delivery to the ones after it.
type FanOut struct {
	targets []broadcastTarget
}

func NewFanOut() *FanOut {
	return &FanOut{}
}

func (f *FanOut) Add(name string, b Broadcaster) *FanOut {
	f.targets = append(f.targets, broadcastTarget{name: name, b: b})
	return f
}

func (f *FanOut) Broadcast(ctx context.Context, event model.TrafficEvent) error {
	var errs []error
	for _, target := range f.targets {
		if err := target.b.Broadcast(ctx, event); err != nil {
			metrics.BroadcastFailed.WithLabelValues(target.name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", target.name, err))
		}
	}
	return errors.Join(errs...)
}
