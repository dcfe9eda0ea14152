package dashboard

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-traffic-service/internal/model"
	"store-traffic-service/internal/utils"
)

func trafficAt(in, out int, at time.Time) model.TrafficEvent {
	return model.TrafficEvent{StoreID: 10, CustomersIn: in, CustomersOut: out, TimeStamp: at}
}

func TestLiveFeedNeverExceedsCapacity(t *testing.T) {
	feed := NewLiveFeed()
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	want := 0
	for i := 0; i < 37; i++ {
		event := trafficAt(i%3+1, i%2, base.Add(time.Duration(i)*time.Second))
		feed.Apply(event)
		want += event.NetChange()

		require.LessOrEqual(t, feed.Len(), LiveCapacity)
		assert.Equal(t, want, feed.Total())
	}

	snap := feed.Snapshot()
	require.Len(t, snap.Live, LiveCapacity)
	assert.Equal(t, base.Add(36*time.Second), snap.Live[0].TimeStamp)
	assert.Equal(t, base.Add(27*time.Second), snap.Live[LiveCapacity-1].TimeStamp)
}

func TestLiveFeedSeedTotalsHourlyNet(t *testing.T) {
	feed := NewLiveFeed()
	feed.Apply(trafficAt(9, 0, time.Now()))

	recent := make([]model.TrafficEvent, 14)
	feed.Seed(recent, []model.HourlyBucket{{NetChange: 4}, {NetChange: -1}})

	assert.Equal(t, LiveCapacity, feed.Len())
	assert.Equal(t, 3, feed.Total())
}

func TestLiveFeedReplaceHourlyKeepsTotal(t *testing.T) {
	feed := NewLiveFeed()
	feed.Seed(nil, []model.HourlyBucket{{Hour: "01 PM", NetChange: 2}})
	feed.Apply(trafficAt(1, 0, time.Now()))

	feed.ReplaceHourly([]model.HourlyBucket{{Hour: "02 PM", NetChange: 7}, {Hour: "03 PM", NetChange: 1}})

	snap := feed.Snapshot()
	assert.Equal(t, 3, snap.Total)
	require.Len(t, snap.Hourly, 2)
	assert.Equal(t, "02 PM", snap.Hourly[0].Hour)
}

func TestSimulatorLiveSkipsEmptyDraws(t *testing.T) {
	sim := NewSimulator(utils.NewWeightedSampler(utils.DefaultZeroProbability, rand.NewPCG(7, 8)), 10, 3)
	now := time.Now()

	emitted := 0
	for i := 0; i < 500; i++ {
		event, ok := sim.Live(now)
		assert.Equal(t, !event.Empty(), ok)
		assert.LessOrEqual(t, event.CustomersIn, 3)
		assert.LessOrEqual(t, event.CustomersOut, 3)
		if ok {
			emitted++
			assert.Equal(t, 10, event.StoreID)
		}
	}
	assert.Positive(t, emitted)
	assert.Less(t, emitted, 500)
}

func TestSimulatorHistory(t *testing.T) {
	sim := NewSimulator(utils.NewWeightedSampler(0, rand.NewPCG(1, 1)), 10, 3)
	now := time.Date(2026, 10, 15, 14, 25, 0, 0, time.UTC)

	history := sim.History(now)
	require.Len(t, history, 24)
	assert.Equal(t, "03 PM", history[0].Hour)
	assert.Equal(t, "02 PM", history[23].Hour)

	for i, bucket := range history {
		if i > 0 {
			assert.True(t, history[i-1].Start.Before(bucket.Start))
		}
		assert.GreaterOrEqual(t, bucket.CustomersIn, 5)
		assert.LessOrEqual(t, bucket.CustomersIn, 24)
		assert.GreaterOrEqual(t, bucket.CustomersOut, 4)
		assert.LessOrEqual(t, bucket.CustomersOut, 21)
		assert.Equal(t, bucket.CustomersIn-bucket.CustomersOut, bucket.NetChange)
	}
}
