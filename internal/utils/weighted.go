package utils

import (
	"math/rand/v2"
	"time"
)

// DefaultZeroProbability is the share of draws that report no customers.
const DefaultZeroProbability = 0.6

// WeightedSampler draws customer counts skewed towards zero: with the
// configured probability it returns 0, otherwise a uniform integer in [1, upper].
// It is not safe for concurrent use.
type WeightedSampler struct {
	zeroProbability float64
	rnd             *rand.Rand
}

func NewWeightedSampler(zeroProbability float64, src rand.Source) *WeightedSampler {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &WeightedSampler{zeroProbability: zeroProbability, rnd: rand.New(src)}
}

// Draw returns a value in [0, upper]. A non-positive upper always yields 0.
func (s *WeightedSampler) Draw(upper int) int {
	if upper <= 0 {
		return 0
	}
	if s.rnd.Float64() < s.zeroProbability {
		return 0
	}
	return s.rnd.IntN(upper) + 1
}

// Uniform returns an integer in [lo, hi] without the zero weighting.
func (s *WeightedSampler) Uniform(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rnd.IntN(hi-lo+1)
}
