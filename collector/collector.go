// Package collector drives the peri-event pipeline: it owns the rolling
// sample buffer, the trigger log, the spike detector and the histogram,
// and runs the process-one-cycle loop that connects them.
package collector

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/spikeh/peth/config"
	"github.com/spikeh/peth/dsp"
	"github.com/spikeh/peth/histogram"
	"github.com/spikeh/peth/input"
	"github.com/spikeh/peth/ring"
)

// maxStaged bounds the ingestion handoff queues. When the consumer cannot
// keep up the oldest staged item is dropped: history is shed, ingestion
// never stalls.
const maxStaged = 256

// Diag receives operator-facing diagnostics. Each distinct condition is
// surfaced once per occurrence kind, not once per event.
type Diag func(format string, args ...interface{})

// Stats are the collector's running condition counters.
type Stats struct {
	OutOfOrderChunks uint64
	OutOfOrderEvents uint64
	EvictedEvents    uint64
	SuppressedEvents uint64
	ProcessedEvents  uint64
	PendingEvents    int
	DetectedSpikes   uint64
}

// Collector ties the pipeline together. Ingest and Notify may be called
// from the transport goroutine; Tick, Snapshot and Raw from any other.
type Collector struct {
	mu sync.Mutex

	cfg     config.Config
	pending *config.Config

	buf *ring.Buffer
	log *EventLog
	agg *histogram.Aggregator
	det dsp.Detector

	stagedChunks []input.Chunk
	stagedTrigs  []input.Trigger

	diag     Diag
	diagSeen map[string]bool

	outOfOrderChunks uint64
	evictedEvents    uint64
	processedEvents  uint64
	detectedSpikes   uint64
}

// New builds a collector for the given configuration.
func New(cfg config.Config, diag Diag) (*Collector, error) {
	if err := cfg.Sanitize(); err != nil {
		return nil, err
	}
	agg, err := histogram.New(histogram.Config{
		Channels: cfg.ChannelCount,
		Before:   cfg.ROIBefore,
		After:    cfg.ROIAfter,
		BinWidth: cfg.BinWidth,
	})
	if err != nil {
		return nil, err
	}
	if diag == nil {
		diag = func(string, ...interface{}) {}
	}

	return &Collector{
		cfg:      cfg,
		buf:      ring.New(cfg.ChannelCount, cfg.BufferSamples),
		log:      NewEventLog(cfg.TriggerHoldoff),
		agg:      agg,
		det:      dsp.Detector{Holdoff: cfg.Holdoff, Polarity: cfg.Polarity},
		diag:     diag,
		diagSeen: make(map[string]bool),
	}, nil
}

// Ingest stages a sample chunk for the next cycle. Non-blocking; if the
// staging queue is full the oldest staged chunk is dropped.
func (c *Collector) Ingest(chunk input.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stagedChunks) >= maxStaged {
		c.stagedChunks = c.stagedChunks[1:]
		c.diagOnce("chunk-drop", "ingestion backlog full, dropping oldest chunk")
	}
	c.stagedChunks = append(c.stagedChunks, chunk)
}

// Notify stages a trigger event for the next cycle. Non-blocking.
func (c *Collector) Notify(t input.Trigger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stagedTrigs) >= maxStaged {
		c.stagedTrigs = c.stagedTrigs[1:]
		c.diagOnce("trigger-drop", "trigger backlog full, dropping oldest trigger")
	}
	c.stagedTrigs = append(c.stagedTrigs, t)
}

// Configure validates opts and stages them for the next cycle boundary.
// On rejection the prior configuration stays in force.
func (c *Collector) Configure(opts config.Config) error {
	if err := opts.Sanitize(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &opts
	return nil
}

// Config returns the configuration in force for the current cycle.
func (c *Collector) Config() config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Tick runs one processing cycle: apply any staged configuration, drain
// staged chunks and triggers into the buffer and log, then attempt ROI
// extraction and detection for every pending event. Idempotent with
// respect to already-acknowledged events.
func (c *Collector) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applyPendingConfig()
	c.drainStaged()
	c.processEvents()
}

func (c *Collector) applyPendingConfig() {
	if c.pending == nil {
		return
	}
	next := *c.pending
	c.pending = nil

	if next.ChannelCount != c.cfg.ChannelCount || next.BufferSamples != c.cfg.BufferSamples {
		c.buf = ring.New(next.ChannelCount, next.BufferSamples)
	}
	if next.ChannelCount != c.cfg.ChannelCount ||
		next.ROIBefore != c.cfg.ROIBefore ||
		next.ROIAfter != c.cfg.ROIAfter ||
		next.BinWidth != c.cfg.BinWidth {
		// Bin layout changed: counts cannot be rebinned, start over.
		if err := c.agg.Reconfigure(histogram.Config{
			Channels: next.ChannelCount,
			Before:   next.ROIBefore,
			After:    next.ROIAfter,
			BinWidth: next.BinWidth,
		}); err != nil {
			c.diag("reconfigure failed, keeping prior bins: %v", err)
			return
		}
	}

	c.det = dsp.Detector{Holdoff: next.Holdoff, Polarity: next.Polarity}
	c.log.holdoff = next.TriggerHoldoff
	c.cfg = next
}

func (c *Collector) drainStaged() {
	for _, chunk := range c.stagedChunks {
		switch err := c.buf.Append(chunk); {
		case err == nil:
		case errors.Is(err, ring.ErrOutOfOrder):
			c.outOfOrderChunks++
			c.diagOnce("chunk-order", "out-of-order chunk at index %d", chunk.Index)
		default:
			c.diagOnce("chunk-bad", "dropping chunk: %v", err)
		}
	}
	c.stagedChunks = c.stagedChunks[:0]

	for _, trig := range c.stagedTrigs {
		c.log.Record(trig)
	}
	c.stagedTrigs = c.stagedTrigs[:0]
}

func (c *Collector) processEvents() {
	thresholds := c.cfg.Thresholds()

	for _, ev := range c.log.Pending() {
		if c.cfg.TriggerChannel >= 0 && ev.Trigger.Channel != c.cfg.TriggerChannel {
			c.log.Ack(ev.ID)
			continue
		}
		if ev.Trigger.Timestamp > c.buf.NextIndex()+2*int64(c.cfg.SampleRate) {
			// Trigger far beyond the data stream: leftover from an earlier
			// acquisition run, never going to match.
			c.log.Ack(ev.ID)
			c.diagOnce("trigger-future", "dropping trigger at %d far beyond data at %d",
				ev.Trigger.Timestamp, c.buf.NextIndex())
			continue
		}

		roi := ROI{Trigger: ev.Trigger, Before: c.cfg.ROIBefore, After: c.cfg.ROIAfter}

		channels, err := roi.Extract(c.buf)
		switch {
		case errors.Is(err, ErrNotYetReady):
			// Still arriving; retry next cycle.
			continue
		case errors.Is(err, ErrEvicted):
			c.evictedEvents++
			c.log.Ack(ev.ID)
			c.diagOnce("roi-evicted", "trigger at %d lost to eviction: %v", ev.Trigger.Timestamp, err)
			continue
		case err != nil:
			c.log.Ack(ev.ID)
			c.diagOnce("roi-error", "extraction failed for trigger at %d: %v", ev.Trigger.Timestamp, err)
			continue
		}

		lo, _ := roi.Bounds()
		for ch, row := range channels {
			if !c.cfg.Enabled(ch) {
				continue
			}
			for _, idx := range c.det.Detect(row, lo, thresholds.ForChannel(ch)) {
				c.agg.AddSpike(ch, idx-ev.Trigger.Timestamp)
				c.detectedSpikes++
			}
		}
		c.processedEvents++
		c.log.Ack(ev.ID)
	}
}

// Snapshot returns a consistent copy of the histogram counts. Safe to
// call at any cadence concurrently with processing.
func (c *Collector) Snapshot() histogram.Snapshot {
	return c.agg.Snapshot()
}

// Reset zeroes the histogram without touching buffered data or pending
// events.
func (c *Collector) Reset() {
	c.agg.Reset()
}

// Raw returns the (min,max)-pair view of the most recent maxSamples of one
// channel, decimated by window. Pull-based and non-blocking.
func (c *Collector) Raw(ch, window int, maxSamples int64) ([]ring.Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.MinMax(ch, window, maxSamples)
}

// Stats returns the running condition counters.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		OutOfOrderChunks: c.outOfOrderChunks,
		OutOfOrderEvents: c.log.OutOfOrder(),
		EvictedEvents:    c.evictedEvents,
		SuppressedEvents: c.log.Suppressed(),
		ProcessedEvents:  c.processedEvents,
		PendingEvents:    c.log.Len(),
		DetectedSpikes:   c.detectedSpikes,
	}
}

func (c *Collector) diagOnce(key, format string, args ...interface{}) {
	if c.diagSeen[key] {
		return
	}
	c.diagSeen[key] = true
	c.diag(format, args...)
}
