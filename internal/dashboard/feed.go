package dashboard

import (
	"time"

	"store-traffic-service/internal/model"
)

// LiveCapacity is the number of live entries kept on screen.
const LiveCapacity = 10

type Status string

const (
	StatusConnected         Status = "connected"
	StatusDisconnected      Status = "disconnected"
	StatusOfflineSimulation Status = "offline-simulation"
)

// Snapshot is what gets rendered on every frame.
type Snapshot struct {
	Status    Status
	StoreID   int
	Total     int
	Database  string
	Live      []model.TrafficEvent
	Hourly    []model.HourlyBucket
	UpdatedAt time.Time
}

// LiveFeed holds the dashboard state. It is owned by the dashboard loop and
// is not safe for concurrent use.
type LiveFeed struct {
	live   []model.TrafficEvent
	hourly []model.HourlyBucket
	total  int
}

func NewLiveFeed() *LiveFeed {
	return &LiveFeed{live: make([]model.TrafficEvent, 0, LiveCapacity)}
}

// Apply puts event at the head of the live list and moves the running total
// by its net change.
func (f *LiveFeed) Apply(event model.TrafficEvent) {
	keep := min(len(f.live), LiveCapacity-1)
	next := make([]model.TrafficEvent, 0, LiveCapacity)
	next = append(next, event)
	next = append(next, f.live[:keep]...)
	f.live = next
	f.total += event.NetChange()
}

// Seed replaces everything. The running total restarts from the net change of
// the hourly history.
func (f *LiveFeed) Seed(recent []model.TrafficEvent, hourly []model.HourlyBucket) {
	f.live = append(make([]model.TrafficEvent, 0, LiveCapacity), recent[:min(len(recent), LiveCapacity)]...)
	f.ReplaceHourly(hourly)

	f.total = 0
	for _, bucket := range f.hourly {
		f.total += bucket.NetChange
	}
}

// ReplaceHourly swaps the hourly history wholesale. The total is left alone.
func (f *LiveFeed) ReplaceHourly(hourly []model.HourlyBucket) {
	f.hourly = append([]model.HourlyBucket(nil), hourly...)
}

func (f *LiveFeed) Len() int {
	return len(f.live)
}

func (f *LiveFeed) Total() int {
	return f.total
}

func (f *LiveFeed) Snapshot() Snapshot {
	return Snapshot{
		Total:  f.total,
		Live:   append([]model.TrafficEvent(nil), f.live...),
		Hourly: append([]model.HourlyBucket(nil), f.hourly...),
	}
}
