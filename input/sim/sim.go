// Package sim is a synthetic acquisition backend: Gaussian channel noise,
// periodic trigger pulses, and evoked spike deflections a few milliseconds
// after each trigger. It drives the whole pipeline without hardware,
// matching what a playback session would deliver.
package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/spikeh/peth/input"
)

func init() {
	input.RegisterBackend("sim", &backend{})
}

// Options tune the generated stream.
type Options struct {
	// Seed makes runs reproducible. Zero seeds from the clock.
	Seed int64
	// NoiseStdDev is the per-sample Gaussian noise sigma.
	NoiseStdDev float64
	// SpikeAmplitude is the negative peak of an evoked spike.
	SpikeAmplitude float64
	// TriggerEvery is the trigger period in samples.
	TriggerEvery int64
	// TriggerChannel is the event channel triggers report.
	TriggerChannel int
	// Latency is the mean trigger-to-spike delay in samples.
	Latency int64
	// Realtime paces chunk delivery at the sample rate when true;
	// otherwise chunks are delivered as fast as the sink accepts them.
	Realtime bool
}

// DefaultOptions are the options used by the registered backend.
var DefaultOptions = Options{
	NoiseStdDev:    12,
	SpikeAmplitude: -90,
	TriggerEvery:   15000,
	Latency:        120,
	Realtime:       true,
}

type backend struct{}

func (backend) Init() error  { return nil }
func (backend) Close() error { return nil }

func (backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return New(cfg, DefaultOptions), nil
}

// Session generates the synthetic stream.
type Session struct {
	cfg  input.SessionConfig
	opts Options
}

func New(cfg input.SessionConfig, opts Options) *Session {
	return &Session{cfg: cfg, opts: opts}
}

// Start produces chunks and triggers until the context is cancelled.
func (s *Session) Start(ctx context.Context, sink input.Sink) error {
	seed := s.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var ticker *time.Ticker
	if s.opts.Realtime {
		chunkDur := time.Duration(float64(s.cfg.SampleSize) / s.cfg.SampleRate * float64(time.Second))
		ticker = time.NewTicker(chunkDur)
		defer ticker.Stop()
	}

	var index int64
	nextTrigger := s.opts.TriggerEvery

	// pending spike deflections: channel -> sample index of the peak
	type spike struct {
		ch int
		at int64
	}
	var pendingSpikes []spike

	for {
		chunk := input.Chunk{
			Index: index,
			Data:  input.MakeBuffers(s.cfg.ChannelCount, s.cfg.SampleSize),
		}
		for ch := range chunk.Data {
			for i := range chunk.Data[ch] {
				chunk.Data[ch][i] = rng.NormFloat64() * s.opts.NoiseStdDev
			}
		}

		end := index + int64(s.cfg.SampleSize)

		// Fire triggers due in this chunk and schedule their evoked
		// spikes, one per channel with per-channel jitter.
		for nextTrigger < end {
			sink.Notify(input.Trigger{
				Timestamp: nextTrigger,
				Channel:   s.opts.TriggerChannel,
				Value:     1,
			})
			for ch := 0; ch < s.cfg.ChannelCount; ch++ {
				jitter := int64(rng.Intn(int(s.opts.Latency/2) + 1))
				pendingSpikes = append(pendingSpikes, spike{ch: ch, at: nextTrigger + s.opts.Latency + jitter})
			}
			nextTrigger += s.opts.TriggerEvery
		}

		// Paint due deflections into the chunk: a short triangular dip.
		const halfWidth = 8
		kept := pendingSpikes[:0]
		for _, sp := range pendingSpikes {
			if sp.at >= end+halfWidth {
				kept = append(kept, sp)
				continue
			}
			for off := -halfWidth; off <= halfWidth; off++ {
				pos := sp.at + int64(off) - index
				if pos < 0 || pos >= int64(s.cfg.SampleSize) {
					continue
				}
				scale := 1 - float64(abs(off))/float64(halfWidth+1)
				chunk.Data[sp.ch][pos] += s.opts.SpikeAmplitude * scale
			}
		}
		pendingSpikes = kept

		sink.Ingest(chunk)
		index = end

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
