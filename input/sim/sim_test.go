package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeh/peth/collector"
	"github.com/spikeh/peth/config"
	"github.com/spikeh/peth/input"
)

// cancelAfter forwards to the collector and stops the session once enough
// chunks have been delivered.
type cancelAfter struct {
	coll   *collector.Collector
	left   int
	cancel context.CancelFunc
}

func (s *cancelAfter) Ingest(c input.Chunk) {
	s.coll.Ingest(c)
	if s.left--; s.left <= 0 {
		s.cancel()
	}
}

func (s *cancelAfter) Notify(t input.Trigger) { s.coll.Notify(t) }

func TestSimDrivesPipeline(t *testing.T) {
	cfg := config.Default()
	coll, err := collector.New(cfg, nil)
	require.NoError(t, err)

	sess := New(input.SessionConfig{
		ChannelCount: cfg.ChannelCount,
		SampleSize:   640,
		SampleRate:   cfg.SampleRate,
	}, Options{
		Seed:           1,
		NoiseStdDev:    12,
		SpikeAmplitude: -90,
		TriggerEvery:   15000,
		Latency:        120,
		Realtime:       false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &cancelAfter{coll: coll, left: 60, cancel: cancel}
	err = sess.Start(ctx, sink)
	assert.ErrorIs(t, err, context.Canceled)

	coll.Tick()

	// 60 chunks cover 38400 samples: triggers at 15000 and 30000, each
	// followed by one evoked spike per channel at latency 120..180.
	stats := coll.Stats()
	assert.Equal(t, uint64(2), stats.ProcessedEvents)
	assert.GreaterOrEqual(t, stats.DetectedSpikes, uint64(2*cfg.ChannelCount))

	snap := coll.Snapshot()
	for ch, row := range snap.Counts {
		var inWindow uint64
		for offset := int64(90); offset <= 180; offset += snap.Config.BinWidth {
			bin := int((offset + snap.Config.Before) / snap.Config.BinWidth)
			inWindow += row[bin]
		}
		assert.GreaterOrEqual(t, inWindow, uint64(2), "channel %d evoked spikes", ch)
	}
}

func TestSimIsReproducible(t *testing.T) {
	run := func() uint64 {
		cfg := config.Default()
		coll, err := collector.New(cfg, nil)
		require.NoError(t, err)

		sess := New(input.SessionConfig{
			ChannelCount: cfg.ChannelCount,
			SampleSize:   640,
			SampleRate:   cfg.SampleRate,
		}, Options{
			Seed:           42,
			NoiseStdDev:    12,
			SpikeAmplitude: -90,
			TriggerEvery:   15000,
			Latency:        120,
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sink := &cancelAfter{coll: coll, left: 40, cancel: cancel}
		_ = sess.Start(ctx, sink)

		coll.Tick()
		return coll.Stats().DetectedSpikes
	}

	assert.Equal(t, run(), run())
}
