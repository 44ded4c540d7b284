// Package dsp provides threshold-crossing spike detection.
//
// Detection is a single forward scan, so running it twice over the same
// samples always yields the same crossings.
package dsp

// Polarity selects which direction through the threshold counts as a
// crossing. Negative-going is the UI and extracellular-recording default.
type Polarity int

const (
	Negative Polarity = iota
	Positive
)

func (p Polarity) String() string {
	if p == Positive {
		return "positive"
	}
	return "negative"
}

// beyond reports whether v is at or beyond the threshold under p.
func (p Polarity) beyond(v, threshold float64) bool {
	if p == Positive {
		return v >= threshold
	}
	return v <= threshold
}

// Thresholds maps channels to threshold levels. A global threshold is the
// degenerate uniform mapping: no per-channel entries, only the default.
type Thresholds struct {
	def     float64
	perChan map[int]float64
}

// Uniform returns a global threshold applied to every channel.
func Uniform(level float64) Thresholds {
	return Thresholds{def: level}
}

// PerChannel returns a mapping of channel to threshold; channels absent
// from the map fall back to def.
func PerChannel(levels map[int]float64, def float64) Thresholds {
	cp := make(map[int]float64, len(levels))
	for ch, v := range levels {
		cp[ch] = v
	}
	return Thresholds{def: def, perChan: cp}
}

// ForChannel returns the threshold level for one channel.
func (t Thresholds) ForChannel(ch int) float64 {
	if v, ok := t.perChan[ch]; ok {
		return v
	}
	return t.def
}

// Detector scans sample runs for threshold crossings.
type Detector struct {
	// Holdoff is the refractory gap in samples: after a crossing, no new
	// crossing registers on the same channel for this many samples. This
	// suppresses re-triggering on a single spike's return swing.
	Holdoff int

	// Polarity selects negative- or positive-going crossings.
	Polarity Polarity
}

// Detect scans samples, whose first element has logical index start, and
// returns the logical indices of threshold crossings.
//
// A sample crosses when the previous sample was strictly on the near side
// of the threshold and the current one is at or beyond it. The sample
// before the run is unknown, so index start itself can never cross.
func (d Detector) Detect(samples []float64, start int64, threshold float64) []int64 {
	var out []int64

	holdoffUntil := int64(-1 << 62)
	for i := 1; i < len(samples); i++ {
		idx := start + int64(i)
		if idx < holdoffUntil {
			continue
		}
		if d.Polarity.beyond(samples[i-1], threshold) {
			continue
		}
		if !d.Polarity.beyond(samples[i], threshold) {
			continue
		}
		out = append(out, idx)
		holdoffUntil = idx + int64(d.Holdoff)
	}

	return out
}
