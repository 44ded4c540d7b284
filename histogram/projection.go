package histogram

// Presentation groupings. All three are read-time projections over one
// snapshot; they never accumulate separately.

// Flat sums a channel group into a single series: counts for channels
// [group*size, group*size+size) added bin-wise.
func (s Snapshot) Flat(group, size int) []uint64 {
	out := make([]uint64, s.Bins())
	start := group * size
	for ch := start; ch < start+size && ch < len(s.Counts); ch++ {
		if ch < 0 {
			continue
		}
		for i, v := range s.Counts[ch] {
			out[i] += v
		}
	}
	return out
}

// Aggregate splits the channels into groups of size and returns each
// group's per-channel series sharing one bin axis.
func (s Snapshot) Aggregate(size int) [][][]uint64 {
	if size < 1 {
		size = 1
	}
	groups := (len(s.Counts) + size - 1) / size

	out := make([][][]uint64, groups)
	for g := range out {
		start := g * size
		end := start + size
		if end > len(s.Counts) {
			end = len(s.Counts)
		}
		out[g] = s.Counts[start:end]
	}
	return out
}

// Channels returns every channel as its own series.
func (s Snapshot) Channels() [][]uint64 {
	return s.Counts
}

// GroupCount returns how many groups of size the snapshot spans.
func (s Snapshot) GroupCount(size int) int {
	if size < 1 {
		return len(s.Counts)
	}
	return (len(s.Counts) + size - 1) / size
}
