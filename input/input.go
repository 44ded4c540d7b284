package input

// Sample is the datatype carried through the pipeline.
type Sample = float64

// Chunk is one block of raw samples for every channel, starting at a
// monotonically non-decreasing sample index. Gaps between consecutive
// chunks are allowed; overlaps are tolerated but flagged downstream.
type Chunk struct {
	// Index is the logical sample index of the first column.
	Index int64
	// Data holds one row per channel. All rows have equal length and the
	// channel count is constant for the lifetime of a session.
	Data [][]Sample
}

// Len returns the number of samples per channel in the chunk.
func (c Chunk) Len() int {
	if len(c.Data) == 0 {
		return 0
	}
	return len(c.Data[0])
}

// Channels returns the number of channels in the chunk.
func (c Chunk) Channels() int {
	return len(c.Data)
}

// Trigger is a discrete event notification from the acquisition source.
// Immutable once recorded.
type Trigger struct {
	// Timestamp is the sample index the event occurred at.
	Timestamp int64
	// Channel is the trigger channel the event arrived on.
	Channel int
	// Value is the event direction or level as reported by the source.
	Value float64
}

// MakeBuffers allocates a set of sample rows, one per channel.
func MakeBuffers(channels, samples int) [][]Sample {
	bufs := make([][]Sample, channels)
	for idx := range bufs {
		bufs[idx] = make([]Sample, samples)
	}
	return bufs
}
