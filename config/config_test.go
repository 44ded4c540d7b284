package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeh/peth/dsp"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Sanitize())
	assert.Equal(t, dsp.Negative, cfg.Polarity)
	assert.Equal(t, 4, cfg.ChannelsPerGroup)
}

func TestSanitizeRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rate", func(c *Config) { c.SampleRate = 0 }},
		{"no channels", func(c *Config) { c.ChannelCount = 0 }},
		{"no buffer", func(c *Config) { c.BufferSamples = 0 }},
		{"group size low", func(c *Config) { c.ChannelsPerGroup = 0 }},
		{"group size high", func(c *Config) { c.ChannelsPerGroup = 9 }},
		{"negative roi", func(c *Config) { c.ROIBefore = -1 }},
		{"empty roi", func(c *Config) { c.ROIBefore = 0; c.ROIAfter = 0 }},
		{"zero bin", func(c *Config) { c.BinWidth = 0 }},
		{"buffer below window", func(c *Config) { c.BufferSamples = 100; c.ROIBefore = 50; c.ROIAfter = 50 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Sanitize()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRejected))
		})
	}
}

func TestSanitizeClampsHoldoffs(t *testing.T) {
	cfg := Default()
	cfg.Holdoff = -5
	cfg.TriggerHoldoff = -5

	require.NoError(t, cfg.Sanitize())
	assert.Equal(t, 0, cfg.Holdoff)
	assert.Equal(t, int64(0), cfg.TriggerHoldoff)
}

func TestGroupBoundsAccepted(t *testing.T) {
	for _, size := range []int{1, 8} {
		cfg := Default()
		cfg.ChannelsPerGroup = size
		assert.NoError(t, cfg.Sanitize())
	}
}

func TestThresholdsMapping(t *testing.T) {
	cfg := Default()
	cfg.Threshold = -50

	thr := cfg.Thresholds()
	assert.Equal(t, -50.0, thr.ForChannel(0))
	assert.Equal(t, -50.0, thr.ForChannel(7))

	cfg.ThresholdMode = ThresholdPerChannel
	cfg.ThresholdValues = map[int]float64{1: -75}
	thr = cfg.Thresholds()
	assert.Equal(t, -75.0, thr.ForChannel(1))
	assert.Equal(t, -50.0, thr.ForChannel(0), "missing channels fall back to the global level")
}

func TestEnabled(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Enabled(0))

	cfg.DisabledChannels = map[int]bool{2: true}
	assert.False(t, cfg.Enabled(2))
	assert.True(t, cfg.Enabled(3))
}
