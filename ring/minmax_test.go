package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeh/peth/input"
)

func TestMinMaxPreservesTransients(t *testing.T) {
	buf := New(1, 1000)

	// Flat signal with one narrow negative spike; an averaging decimator
	// would wash the spike out, the (min,max) pairs must keep it.
	values := make([]float64, 400)
	values[250] = -80
	require.NoError(t, buf.Append(chunkOf(0, 1, values)))

	pairs, err := buf.MinMax(0, 100, 0)
	require.NoError(t, err)
	require.Len(t, pairs, 4)

	assert.Equal(t, float64(0), pairs[2].Max)
	assert.Equal(t, float64(-80), pairs[2].Min)

	for _, i := range []int{0, 1, 3} {
		assert.Equal(t, float64(0), pairs[i].Min)
		assert.Equal(t, float64(0), pairs[i].Max)
	}
}

func TestMinMaxDropsPartialLeadingWindow(t *testing.T) {
	buf := New(1, 1000)
	require.NoError(t, buf.Append(rampChunk(0, 1, 250)))

	pairs, err := buf.MinMax(0, 100, 0)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	// The odd 50 samples at the front are skipped, both windows full.
	assert.Equal(t, float64(50), pairs[0].Min)
	assert.Equal(t, float64(149), pairs[0].Max)
	assert.Equal(t, float64(150), pairs[1].Min)
	assert.Equal(t, float64(249), pairs[1].Max)
}

func TestMinMaxLimitsToRecentSamples(t *testing.T) {
	buf := New(1, 1000)
	require.NoError(t, buf.Append(rampChunk(0, 1, 600)))

	pairs, err := buf.MinMax(0, 100, 200)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, float64(400), pairs[0].Min)
	assert.Equal(t, float64(599), pairs[1].Max)
}

func TestMinMaxEmptyBuffer(t *testing.T) {
	buf := New(1, 100)
	pairs, err := buf.MinMax(0, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	require.NoError(t, buf.Append(chunkOf(0, 1, make([]input.Sample, 5))))
	pairs, err = buf.MinMax(0, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
