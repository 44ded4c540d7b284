package main

import (
	"fmt"
	"io"

	"github.com/spikeh/peth/collector"
	"github.com/spikeh/peth/histogram"
)

// Writer prints histogram snapshots as plain rows of counts, one row per
// channel group, for piping into plotting tools.
type Writer struct {
	out       io.Writer
	groupSize int
	frame     uint64
}

func NewWriter(out io.Writer, groupSize int) *Writer {
	return &Writer{out: out, groupSize: groupSize}
}

// Write prints one frame: the flat (summed) series of every group.
func (w *Writer) Write(snap histogram.Snapshot) error {
	w.frame++

	if _, err := fmt.Fprintf(w.out, "frame %d bins %d\n", w.frame, snap.Bins()); err != nil {
		return err
	}

	for g := 0; g < snap.GroupCount(w.groupSize); g++ {
		if _, err := fmt.Fprintf(w.out, "group %d:", g); err != nil {
			return err
		}
		for _, count := range snap.Flat(g, w.groupSize) {
			if _, err := fmt.Fprintf(w.out, " %d", count); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w.out); err != nil {
			return err
		}
	}

	return nil
}

// WriteStats prints the run's condition counters on shutdown.
func (w *Writer) WriteStats(stats collector.Stats) {
	fmt.Fprintf(w.out,
		"events processed %d pending %d evicted %d suppressed %d; spikes %d; chunks out-of-order %d\n",
		stats.ProcessedEvents, stats.PendingEvents, stats.EvictedEvents,
		stats.SuppressedEvents, stats.DetectedSpikes, stats.OutOfOrderChunks)
}
