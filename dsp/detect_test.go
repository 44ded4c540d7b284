package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dip writes a short negative deflection of the given depth at pos.
func dip(samples []float64, pos int, depth float64) {
	samples[pos] = depth
	if pos+1 < len(samples) {
		samples[pos+1] = depth / 2
	}
}

func TestNegativeCrossing(t *testing.T) {
	samples := make([]float64, 200)
	dip(samples, 100, -60)

	det := Detector{Holdoff: 30}
	got := det.Detect(samples, 1000, -50)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1100), got[0])
}

func TestRefractorySuppressesNearbyCrossing(t *testing.T) {
	det := Detector{Holdoff: 30}

	// Two crossings 10 samples apart: the second falls inside the
	// refractory gap and must be suppressed.
	near := make([]float64, 200)
	dip(near, 100, -60)
	dip(near, 110, -60)
	assert.Len(t, det.Detect(near, 0, -50), 1)

	// 40 samples apart: both register.
	far := make([]float64, 200)
	dip(far, 100, -60)
	dip(far, 140, -60)
	got := det.Detect(far, 0, -50)
	require.Len(t, got, 2)
	assert.Equal(t, []int64{100, 140}, got)
}

func TestCrossingNeedsRearm(t *testing.T) {
	// Signal that stays beyond threshold past the holdoff: no second
	// detection until it comes back above and crosses again.
	samples := make([]float64, 200)
	for i := 50; i < 120; i++ {
		samples[i] = -70
	}
	dip(samples, 160, -60)

	det := Detector{Holdoff: 30}
	got := det.Detect(samples, 0, -50)

	require.Len(t, got, 2)
	assert.Equal(t, []int64{50, 160}, got)
}

func TestPositivePolarity(t *testing.T) {
	samples := make([]float64, 100)
	samples[40] = 80

	det := Detector{Holdoff: 10, Polarity: Positive}

	assert.Equal(t, []int64{40}, det.Detect(samples, 0, 50))
	assert.Empty(t, det.Detect(samples, 0, 90))
}

func TestFirstSampleNeverCrosses(t *testing.T) {
	samples := []float64{-90, -90, 0, 0}
	det := Detector{Holdoff: 1}

	// No preceding sample to cross from.
	assert.Empty(t, det.Detect(samples, 0, -50))
}

func TestDetectIsDeterministic(t *testing.T) {
	samples := make([]float64, 500)
	for i := range samples {
		samples[i] = float64((i*37)%100) - 70
	}

	det := Detector{Holdoff: 22}
	first := det.Detect(samples, 123, -50)
	for run := 0; run < 5; run++ {
		assert.Equal(t, first, det.Detect(samples, 123, -50))
	}
}

func TestThresholdsGlobalIsUniform(t *testing.T) {
	uni := Uniform(-50)
	for ch := 0; ch < 8; ch++ {
		assert.Equal(t, -50.0, uni.ForChannel(ch))
	}

	per := PerChannel(map[int]float64{2: -80}, -50)
	assert.Equal(t, -80.0, per.ForChannel(2))
	assert.Equal(t, -50.0, per.ForChannel(0))
}

func TestAutoThreshold(t *testing.T) {
	samples := []float64{-2, -1, 0, 1, 2}

	neg := AutoThreshold(samples, 2, Negative)
	pos := AutoThreshold(samples, 2, Positive)

	assert.Less(t, neg, 0.0)
	assert.Greater(t, pos, 0.0)
	assert.InDelta(t, -neg, pos, 1e-9)
}
