package collector

import (
	"github.com/pkg/errors"

	"github.com/spikeh/peth/input"
	"github.com/spikeh/peth/ring"
)

var (
	// ErrNotYetReady reports an ROI whose tail has not arrived yet.
	// Transient: the event stays pending for a later cycle.
	ErrNotYetReady = errors.New("collector: roi not yet ready")

	// ErrEvicted reports an ROI reaching into evicted history. Permanent:
	// the event is acknowledged as unprocessable.
	ErrEvicted = errors.New("collector: roi evicted")
)

// ROI is the trigger-relative window subject to spike detection. The
// window covers the inclusive sample range
// [Trigger.Timestamp-Before, Trigger.Timestamp+After].
type ROI struct {
	Trigger input.Trigger
	Before  int64
	After   int64
}

// Bounds returns the inclusive window edges.
func (r ROI) Bounds() (lo, hi int64) {
	return r.Trigger.Timestamp - r.Before, r.Trigger.Timestamp + r.After
}

// Contains reports whether a sample index falls inside the window. Both
// edges belong to the window.
func (r ROI) Contains(idx int64) bool {
	lo, hi := r.Bounds()
	return idx >= lo && idx <= hi
}

// Extract slices the window out of the buffer for every channel.
//
// The window is ready only once the buffer holds a sample strictly beyond
// its upper edge; until then extraction fails with ErrNotYetReady. A
// window whose lower edge is older than the oldest retained sample fails
// with ErrEvicted. Extraction never partially succeeds.
//
// Overlapping windows from adjacent triggers extract independently; a
// spike inside the overlap is attributed to every window containing it.
func (r ROI) Extract(buf *ring.Buffer) ([][]input.Sample, error) {
	lo, hi := r.Bounds()

	if lo < buf.OldestIndex() {
		return nil, errors.Wrapf(ErrEvicted, "window [%d,%d] oldest retained %d", lo, hi, buf.OldestIndex())
	}
	// NextIndex-1 is the newest sample; it must lie strictly beyond hi.
	if buf.NextIndex()-1 <= hi {
		return nil, errors.Wrapf(ErrNotYetReady, "window [%d,%d] newest %d", lo, hi, buf.NextIndex()-1)
	}

	out := make([][]input.Sample, buf.Channels())
	for ch := range out {
		row, err := buf.ReadRange(ch, lo, hi+1)
		if err != nil {
			// Bounds were checked above; a failure here means the buffer
			// moved underneath us, which the single-cycle lock prevents.
			return nil, err
		}
		out[ch] = row
	}
	return out, nil
}
