package ring

import (
	"gonum.org/v1/gonum/floats"

	"github.com/spikeh/peth/input"
)

// Pair is the (min, max) of one decimation window. Keeping both extremes
// instead of an average preserves spike-like transients at display rates.
type Pair struct {
	Index int64 // logical index of the middle of the window
	Min   input.Sample
	Max   input.Sample
}

// MinMax decimates the most recent maxSamples of one channel into one
// (min, max) pair per window samples. A leading partial window is dropped
// so every pair covers a full window. Pure read-only transform.
func (b *Buffer) MinMax(ch, window int, maxSamples int64) ([]Pair, error) {
	if window < 1 {
		window = 1
	}
	if b.empty {
		return nil, nil
	}

	from := b.oldest
	if maxSamples > 0 && b.next-maxSamples > from {
		from = b.next - maxSamples
	}

	// Align the start so only full windows remain.
	total := b.next - from
	total -= total % int64(window)
	if total == 0 {
		return nil, nil
	}
	from = b.next - total

	raw, err := b.ReadRange(ch, from, b.next)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(raw)/window)
	for off := 0; off+window <= len(raw); off += window {
		chunk := raw[off : off+window]
		pairs = append(pairs, Pair{
			Index: from + int64(off) + int64(window)/2,
			Min:   floats.Min(chunk),
			Max:   floats.Max(chunk),
		})
	}
	return pairs, nil
}
