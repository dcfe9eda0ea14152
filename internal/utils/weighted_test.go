package utils

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawStaysWithinBounds(t *testing.T) {
	s := NewWeightedSampler(DefaultZeroProbability, rand.NewPCG(1, 2))

	for upper := 0; upper <= 5; upper++ {
		for i := 0; i < 500; i++ {
			v := s.Draw(upper)
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, upper)
		}
	}
}

func TestDrawNonPositiveMax(t *testing.T) {
	s := NewWeightedSampler(0, rand.NewPCG(1, 2))
	assert.Equal(t, 0, s.Draw(0))
	assert.Equal(t, 0, s.Draw(-3))
}

func TestDrawNeverZeroWhenProbabilityIsZero(t *testing.T) {
	s := NewWeightedSampler(0, rand.NewPCG(3, 4))
	for i := 0; i < 500; i++ {
		assert.Positive(t, s.Draw(3))
	}
}

func TestDrawZeroShareFollowsProbability(t *testing.T) {
	s := NewWeightedSampler(DefaultZeroProbability, rand.NewPCG(5, 6))

	const draws = 20000
	zeros := 0
	for i := 0; i < draws; i++ {
		if s.Draw(3) == 0 {
			zeros++
		}
	}
	assert.InDelta(t, DefaultZeroProbability, float64(zeros)/draws, 0.03)
}

func TestUniformRange(t *testing.T) {
	s := NewWeightedSampler(1, rand.NewPCG(5, 6))

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := s.Uniform(4, 7)
		assert.GreaterOrEqual(t, v, 4)
		assert.LessOrEqual(t, v, 7)
		seen[v] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, 9, s.Uniform(9, 9))
}
