package stepdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossover_StartsAbove(t *testing.T) {
	c := NewCrossover()
	assert.True(t, c.Above())
	// Staying above raises nothing.
	assert.False(t, c.Update(2, 1))
}

func TestCrossover_OnlyRisingEdgesCount(t *testing.T) {
	c := NewCrossover()
	diffs := []float64{1, 2, 3, -1, -2, -3, 1, 2}

	var candidates []int
	for i, d := range diffs {
		if c.Update(d, 0) {
			candidates = append(candidates, i)
		}
	}
	assert.Equal(t, []int{6}, candidates)
}

func TestCrossover_EqualIsBelow(t *testing.T) {
	c := NewCrossover()
	assert.False(t, c.Update(1, 1))
	assert.False(t, c.Above())
	assert.True(t, c.Update(1.0000001, 1))
	assert.True(t, c.Candidate())
	assert.False(t, c.Update(5, 1))
	assert.False(t, c.Candidate())
}

func TestCrossover_OneCandidatePerCycle(t *testing.T) {
	c := NewCrossover()
	n := 0
	for cycle := 0; cycle < 10; cycle++ {
		for _, d := range []float64{-1, -0.5, 0.5, 1, 0.5, -0.5} {
			if c.Update(d, 0) {
				n++
			}
		}
	}
	assert.Equal(t, 10, n)
}
