// Package ring implements the bounded multichannel sample store.
//
// Samples are addressed by logical index: the monotonically increasing
// position in the acquisition stream, never the wrapped storage offset.
// The buffer retains a contiguous window [OldestIndex, NextIndex) of the
// most recent samples per channel; anything older has been evicted.
package ring

import (
	"github.com/pkg/errors"

	"github.com/spikeh/peth/input"
)

var (
	// ErrOutOfOrder reports a chunk starting behind the write cursor.
	// The overlapping prefix is dropped and the rest applied, so the
	// caller should re-synchronize rather than retry.
	ErrOutOfOrder = errors.New("ring: chunk behind write cursor")

	// ErrRangeEvicted reports a read reaching into history that has been
	// overwritten. Permanent for that range.
	ErrRangeEvicted = errors.New("ring: range evicted")

	// ErrRangeNotYetAvailable reports a read past the newest appended
	// sample. Transient: retry once more data has arrived.
	ErrRangeNotYetAvailable = errors.New("ring: range not yet available")

	// ErrChannelCount reports a chunk whose channel count does not match
	// the buffer. The channel count is fixed for a session.
	ErrChannelCount = errors.New("ring: channel count mismatch")
)

// Buffer is a fixed-capacity circular store of shape channels x capacity.
// Rows share one write cursor, so every channel always covers the same
// index window. Single writer; reads copy out under the same goroutine or
// an external lock.
type Buffer struct {
	data     [][]input.Sample
	capacity int64

	oldest int64 // oldest retained logical index
	next   int64 // next write position (logical)
	empty  bool
}

// New returns a buffer retaining the most recent capacity samples for each
// of channels rows.
func New(channels, capacity int) *Buffer {
	if channels < 1 || capacity < 1 {
		panic("ring: channels and capacity must be positive")
	}
	return &Buffer{
		data:     input.MakeBuffers(channels, capacity),
		capacity: int64(capacity),
		empty:    true,
	}
}

// Channels returns the fixed channel count.
func (b *Buffer) Channels() int { return len(b.data) }

// Cap returns the per-channel capacity.
func (b *Buffer) Cap() int { return int(b.capacity) }

// Len returns the number of currently retained samples per channel.
func (b *Buffer) Len() int { return int(b.next - b.oldest) }

// OldestIndex returns the logical index of the oldest retained sample.
func (b *Buffer) OldestIndex() int64 { return b.oldest }

// NextIndex returns the logical index one past the newest sample.
func (b *Buffer) NextIndex() int64 { return b.next }

// Append writes a chunk for all channels starting at chunk.Index.
//
// A gap between the cursor and the chunk start becomes a zero-filled hole.
// A chunk starting behind the cursor has its already-covered prefix
// dropped, the remainder is applied and ErrOutOfOrder is returned. A chunk
// that ends before the oldest retained sample means the acquisition
// restarted its index counter: the window is flushed and writing restarts
// at the chunk's index.
func (b *Buffer) Append(chunk input.Chunk) error {
	if chunk.Channels() != len(b.data) {
		return errors.Wrapf(ErrChannelCount, "got %d, want %d", chunk.Channels(), len(b.data))
	}
	n := int64(chunk.Len())
	if n == 0 {
		return nil
	}

	start, end := chunk.Index, chunk.Index+n

	if !b.empty && end <= b.oldest {
		// Acquisition restart: everything retained is from a future the
		// stream no longer lives in. Start over at the chunk index.
		b.reset(start)
	}

	if b.empty {
		b.oldest = start
		b.next = start
		b.empty = false
	}

	outOfOrder := false
	if start < b.next {
		outOfOrder = true
		skip := b.next - start
		if skip >= n {
			return errors.Wrapf(ErrOutOfOrder, "chunk [%d,%d) fully behind cursor %d", start, end, b.next)
		}
		start += skip
		chunk = input.Chunk{Index: start, Data: sliceRows(chunk.Data, int(skip))}
	}

	// Zero-fill a forward gap so reads see holes, not stale data.
	if gap := start - b.next; gap > 0 {
		if gap >= b.capacity {
			b.reset(start)
		} else {
			b.zeroFill(b.next, start)
		}
	}

	if int64(chunk.Len()) >= b.capacity {
		// Only the tail fits anyway.
		drop := int64(chunk.Len()) - b.capacity
		chunk = input.Chunk{Index: start + drop, Data: sliceRows(chunk.Data, int(drop))}
		start = chunk.Index
		b.reset(start)
	}

	for ch, row := range chunk.Data {
		b.write(ch, start, row)
	}
	b.next = start + int64(chunk.Len())
	if b.next-b.oldest > b.capacity {
		b.oldest = b.next - b.capacity
	}

	if outOfOrder {
		return errors.Wrapf(ErrOutOfOrder, "chunk started at %d behind cursor", chunk.Index)
	}
	return nil
}

// ReadRange copies out samples for one channel over the half-open logical
// range [from, to). It never partially succeeds: the whole range must be
// retained.
func (b *Buffer) ReadRange(ch int, from, to int64) ([]input.Sample, error) {
	if ch < 0 || ch >= len(b.data) {
		return nil, errors.Wrapf(ErrChannelCount, "channel %d", ch)
	}
	if from >= to {
		return nil, errors.Errorf("ring: empty range [%d,%d)", from, to)
	}
	if b.empty || from < b.oldest {
		return nil, errors.Wrapf(ErrRangeEvicted, "[%d,%d) oldest %d", from, to, b.oldest)
	}
	if to > b.next {
		return nil, errors.Wrapf(ErrRangeNotYetAvailable, "[%d,%d) next %d", from, to, b.next)
	}

	out := make([]input.Sample, to-from)
	row := b.data[ch]
	for i := range out {
		out[i] = row[(from+int64(i))%b.capacity]
	}
	return out, nil
}

func (b *Buffer) write(ch int, at int64, samples []input.Sample) {
	row := b.data[ch]
	for i, v := range samples {
		row[(at+int64(i))%b.capacity] = v
	}
}

func (b *Buffer) zeroFill(from, to int64) {
	for ch := range b.data {
		row := b.data[ch]
		for i := from; i < to; i++ {
			row[i%b.capacity] = 0
		}
	}
	b.next = to
	if b.next-b.oldest > b.capacity {
		b.oldest = b.next - b.capacity
	}
}

func (b *Buffer) reset(at int64) {
	b.oldest = at
	b.next = at
	b.empty = false
}

func sliceRows(rows [][]input.Sample, from int) [][]input.Sample {
	out := make([][]input.Sample, len(rows))
	for i := range rows {
		out[i] = rows[i][from:]
	}
	return out
}
