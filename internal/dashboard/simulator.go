package dashboard

import (
	"time"

	"store-traffic-service/internal/model"
	"store-traffic-service/internal/utils"
)

const simulatedHours = 24

// Simulator produces clearly synthetic data for offline simulation mode.
type Simulator struct {
	sampler *utils.WeightedSampler
	storeID int
	maxIn   int
}

func NewSimulator(sampler *utils.WeightedSampler, storeID, maxIn int) *Simulator {
	return &Simulator{sampler: sampler, storeID: storeID, maxIn: maxIn}
}

// Live draws one synthetic entry. ok is false when both counts came out zero.
func (s *Simulator) Live(now time.Time) (model.TrafficEvent, bool) {
	event := model.TrafficEvent{
		StoreID:      s.storeID,
		CustomersIn:  s.sampler.Draw(s.maxIn),
		CustomersOut: s.sampler.Draw(s.maxIn),
		TimeStamp:    now.UTC(),
	}
	return event, !event.Empty()
}

// History returns one bucket for each of the 24 hours ending at now, oldest
// first.
func (s *Simulator) History(now time.Time) []model.HourlyBucket {
	current := now.Truncate(time.Hour)
	buckets := make([]model.HourlyBucket, 0, simulatedHours)

	for i := simulatedHours - 1; i >= 0; i-- {
		start := current.Add(-time.Duration(i) * time.Hour)
		in := s.sampler.Uniform(5, 24)
		out := s.sampler.Uniform(4, 21)
		buckets = append(buckets, model.HourlyBucket{
			Start:        start,
			Hour:         start.Format(model.HourLabelLayout),
			CustomersIn:  in,
			CustomersOut: out,
			NetChange:    in - out,
		})
	}
	return buckets
}
