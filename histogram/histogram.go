// Package histogram accumulates the peri-event time histogram: spike
// counts per channel, binned by offset relative to the trigger.
package histogram

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrBadConfig reports an invalid bin configuration.
var ErrBadConfig = errors.New("histogram: invalid configuration")

// Config fixes the bin layout. Offsets span the inclusive sample range
// [-Before, +After] around the trigger at BinWidth samples per bin.
type Config struct {
	Channels int
	Before   int64 // samples before the trigger
	After    int64 // samples after the trigger
	BinWidth int64 // samples per bin
}

func (c Config) validate() error {
	switch {
	case c.Channels < 1:
		return errors.Wrap(ErrBadConfig, "no channels")
	case c.Before < 0 || c.After < 0:
		return errors.Wrap(ErrBadConfig, "negative window")
	case c.Before+c.After == 0:
		return errors.Wrap(ErrBadConfig, "empty window")
	case c.BinWidth < 1:
		return errors.Wrap(ErrBadConfig, "bin width under one sample")
	}
	return nil
}

// bins returns the bin count covering [-Before, +After] inclusive.
func (c Config) bins() int {
	span := c.Before + c.After + 1
	return int((span + c.BinWidth - 1) / c.BinWidth)
}

// Aggregator owns the running counts. Writers add spikes under the lock;
// readers get deep-copied snapshots, so a renderer polling at its own
// cadence never observes a partial update.
type Aggregator struct {
	mu     sync.Mutex
	cfg    Config
	counts [][]uint64 // [channel][bin]
}

func New(cfg Config) (*Aggregator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	agg := &Aggregator{cfg: cfg}
	agg.alloc()
	return agg, nil
}

func (a *Aggregator) alloc() {
	bins := a.cfg.bins()
	a.counts = make([][]uint64, a.cfg.Channels)
	for ch := range a.counts {
		a.counts[ch] = make([]uint64, bins)
	}
}

// AddSpike counts one spike at the given trigger-relative offset. Offsets
// outside [-Before, After] are dropped; the extractor never produces them,
// this is a defensive check only.
func (a *Aggregator) AddSpike(ch int, offset int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ch < 0 || ch >= a.cfg.Channels {
		return
	}
	if offset < -a.cfg.Before || offset > a.cfg.After {
		return
	}
	bin := (offset + a.cfg.Before) / a.cfg.BinWidth
	a.counts[ch][bin]++
}

// Reset zeroes all counts without changing the bin configuration.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ch := range a.counts {
		for i := range a.counts[ch] {
			a.counts[ch][i] = 0
		}
	}
}

// Reconfigure replaces the bin layout and zeroes every count. Raw spike
// offsets are not retained, so rebinning accumulated counts is not
// possible; the accumulation simply starts over.
func (a *Aggregator) Reconfigure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
	a.alloc()
	return nil
}

// Snapshot returns a consistent deep copy of all counts.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts := make([][]uint64, len(a.counts))
	for ch := range a.counts {
		counts[ch] = append([]uint64(nil), a.counts[ch]...)
	}
	return Snapshot{Config: a.cfg, Counts: counts}
}

// Snapshot is a read-only copy of the accumulated counts.
type Snapshot struct {
	Config Config
	Counts [][]uint64 // [channel][bin]
}

// Bins returns the number of bins per channel.
func (s Snapshot) Bins() int {
	if len(s.Counts) == 0 {
		return 0
	}
	return len(s.Counts[0])
}

// BinCenters returns the trigger-relative sample offset at the center of
// each bin, for display axes.
func (s Snapshot) BinCenters() []int64 {
	centers := make([]int64, s.Bins())
	for i := range centers {
		centers[i] = -s.Config.Before + int64(i)*s.Config.BinWidth + s.Config.BinWidth/2
	}
	return centers
}
