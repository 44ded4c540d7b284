// Package config defines the recognized option set and its validation.
package config

import (
	"github.com/pkg/errors"

	"github.com/spikeh/peth/dsp"
)

// ErrRejected reports an invalid option value. The caller keeps its prior
// configuration when it sees this.
var ErrRejected = errors.New("config: rejected")

// ThresholdMode selects global or per-channel threshold levels.
type ThresholdMode int

const (
	ThresholdGlobal ThresholdMode = iota
	ThresholdPerChannel
)

// Config is one configuration snapshot. Components read it per processing
// cycle; changes take effect only at the next cycle boundary so spikes
// detected under different parameters never mix within one bin set.
type Config struct {
	// SampleRate is the acquisition rate in Hz.
	SampleRate float64
	// ChannelCount is the number of analog channels in the stream.
	ChannelCount int
	// BufferSamples is the per-channel rolling buffer capacity.
	BufferSamples int

	// ThresholdMode selects global or per-channel thresholds.
	ThresholdMode ThresholdMode
	// Threshold is the global level (ThresholdGlobal) or the fallback for
	// channels missing from ThresholdValues.
	Threshold float64
	// ThresholdValues maps channel to level when per-channel.
	ThresholdValues map[int]float64
	// Polarity selects negative- or positive-going crossings.
	Polarity dsp.Polarity
	// Holdoff is the refractory gap in samples.
	Holdoff int

	// ChannelsPerGroup is the tetrode size, 1 to 8.
	ChannelsPerGroup int
	// DisabledChannels are skipped during detection.
	DisabledChannels map[int]bool

	// ROIBefore and ROIAfter are the trigger-relative window in samples.
	ROIBefore int64
	ROIAfter  int64
	// BinWidth is the histogram bin size in samples.
	BinWidth int64

	// TriggerChannel is the event channel treated as trigger; -1 takes
	// every channel.
	TriggerChannel int
	// TriggerHoldoff suppresses trigger bursts: a second trigger within
	// this many samples of the previous one is dropped.
	TriggerHoldoff int64
}

// Default returns the zero config: 30 kHz acquisition, tetrode grouping,
// a 2 second rolling window and the classic -20ms..+50ms PETH span.
func Default() Config {
	rate := 30000.0
	return Config{
		SampleRate:       rate,
		ChannelCount:     4,
		BufferSamples:    int(rate) * 2,
		ThresholdMode:    ThresholdGlobal,
		Threshold:        -50,
		Polarity:         dsp.Negative,
		Holdoff:          int(0.00075 * rate),
		ChannelsPerGroup: 4,
		ROIBefore:        int64(0.02 * rate),
		ROIAfter:         int64(0.05 * rate),
		BinWidth:         int64(0.001 * rate),
		TriggerChannel:   -1,
		TriggerHoldoff:   int64(0.001 * rate),
	}
}

// Sanitize validates the config, clamping what is harmless and rejecting
// what is not. On error the config must not be applied.
func (cfg *Config) Sanitize() error {
	switch {
	case cfg.SampleRate <= 0:
		return errors.Wrap(ErrRejected, "sample rate must be positive")
	case cfg.ChannelCount < 1:
		return errors.Wrap(ErrRejected, "at least one channel required")
	case cfg.BufferSamples < 1:
		return errors.Wrap(ErrRejected, "buffer capacity must be positive")
	case cfg.ChannelsPerGroup < 1 || cfg.ChannelsPerGroup > 8:
		return errors.Wrapf(ErrRejected, "channels per group %d outside 1-8", cfg.ChannelsPerGroup)
	case cfg.ROIBefore < 0 || cfg.ROIAfter < 0:
		return errors.Wrap(ErrRejected, "negative ROI window")
	case cfg.ROIBefore+cfg.ROIAfter == 0:
		return errors.Wrap(ErrRejected, "empty ROI window")
	case cfg.BinWidth < 1:
		return errors.Wrap(ErrRejected, "bin width under one sample")
	case int64(cfg.BufferSamples) <= cfg.ROIBefore+cfg.ROIAfter:
		return errors.Wrap(ErrRejected, "buffer smaller than ROI window")
	}

	if cfg.Holdoff < 0 {
		cfg.Holdoff = 0
	}
	if cfg.TriggerHoldoff < 0 {
		cfg.TriggerHoldoff = 0
	}

	return nil
}

// Thresholds builds the detector threshold mapping for this config.
// Global mode is the degenerate uniform mapping.
func (cfg *Config) Thresholds() dsp.Thresholds {
	if cfg.ThresholdMode == ThresholdPerChannel {
		return dsp.PerChannel(cfg.ThresholdValues, cfg.Threshold)
	}
	return dsp.Uniform(cfg.Threshold)
}

// Enabled reports whether a channel takes part in detection.
func (cfg *Config) Enabled(ch int) bool {
	return !cfg.DisabledChannels[ch]
}
