package service

// Occupancy tracks how many customers are currently inside each store.
// It is owned by the Generator and only touched from its goroutine.
type Occupancy struct {
	counts map[int]int
}

func NewOccupancy(storeIDs []int) *Occupancy {
	counts := make(map[int]int, len(storeIDs))
	for _, id := range storeIDs {
		counts[id] = 0
	}
	return &Occupancy{counts: counts}
}

// Get returns the tracked count, 0 for unknown stores.
func (o *Occupancy) Get(storeID int) int {
	return o.counts[storeID]
}

// Bound is the count used to cap customers leaving; never negative.
func (o *Occupancy) Bound(storeID int) int {
	return max(o.counts[storeID], 0)
}

// Apply adds delta and returns the new count.
func (o *Occupancy) Apply(storeID, delta int) int {
	o.counts[storeID] += delta
	return o.counts[storeID]
}

func (o *Occupancy) Reset(storeID, count int) {
	o.counts[storeID] = count
}

func (o *Occupancy) Snapshot() map[int]int {
	out := make(map[int]int, len(o.counts))
	for id, count := range o.counts {
		out[id] = count
	}
	return out
}
