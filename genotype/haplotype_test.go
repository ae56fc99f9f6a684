package genotype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaplotype_SumsToOne(t *testing.T) {
	for _, nMax := range []int32{0, 1, 5, 30} {
		for _, nTrue := range []int32{0, 3, 10, 40} {
			h, err := NewHaplotype(nTrue, nMax, 0.97)
			require.NoError(t, err)
			var sum float64
			for k := int32(0); k <= nMax; k++ {
				sum += h.PMF(k)
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		}
	}
}

func TestHaplotype_MonotonicTails(t *testing.T) {
	h, err := NewHaplotype(10, 30, 0.9)
	require.NoError(t, err)
	var prevLE, prevGE float64 = -1, 2
	for k := int32(0); k <= 30; k++ {
		le := h.PLE(k)
		assert.GreaterOrEqual(t, le, prevLE)
		prevLE = le
	}
	for l := int32(0); l <= 30; l++ {
		ge := h.PGE(l)
		assert.LessOrEqual(t, ge, prevGE)
		prevGE = ge
	}
}

func TestHaplotype_PointMassAtCenter(t *testing.T) {
	h, err := NewHaplotype(10, 30, 0.97)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h.PMF(10), 0.97)
}

func TestHaplotype_ZeroDeviationWindow(t *testing.T) {
	h, err := NewHaplotype(0, 0, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h.PMF(0), 1e-12)
}

func TestLogSumExp2(t *testing.T) {
	got := logSumExp2(math.Log(0.3), math.Log(0.4))
	assert.InDelta(t, math.Log(0.7), got, 1e-9)
}
