package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spikeh/peth/collector"
	"github.com/spikeh/peth/config"
	"github.com/spikeh/peth/dsp"
	"github.com/spikeh/peth/input"
	"github.com/spikeh/peth/input/sim"

	"github.com/integrii/flaggy"
	"github.com/pkg/errors"
)

// AppName is the app name
const AppName = "peth"

// AppDesc is the app description
const AppDesc = "online peri-event time histogram for multichannel spike streams"

var version = "unknown"

type flags struct {
	backend      string
	rate         float64
	channels     int
	bufferSecs   float64
	chunkSize    int
	threshold    float64
	polarity     string
	holdoff      int
	roiBeforeMs  float64
	roiAfterMs   float64
	binMs        float64
	groupSize    int
	disabled     string
	triggerCh    int
	seed         int64
	frameRate    int
	durationSecs float64
}

func main() {
	log.SetFlags(0)

	f := flags{
		backend:      "sim",
		rate:         30000,
		channels:     4,
		bufferSecs:   2,
		chunkSize:    640,
		threshold:    -50,
		polarity:     "negative",
		holdoff:      22,
		roiBeforeMs:  20,
		roiAfterMs:   50,
		binMs:        1,
		groupSize:    4,
		triggerCh:    -1,
		frameRate:    2,
	}

	if doFlags(&f) {
		return
	}

	chk(run(&f), "failed to run peth")
}

func doFlags(f *flags) bool {
	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:        "list-backends",
		ShortName:   "lb",
		Description: "list all supported input backends",
	}
	parser.AttachSubcommand(&listBackendsCmd, 1)

	parser.String(&f.backend, "b", "backend", "input backend name")
	parser.Float64(&f.rate, "r", "rate", "sample rate in Hz")
	parser.Int(&f.channels, "ch", "channels", "channel count")
	parser.Float64(&f.bufferSecs, "w", "window", "rolling buffer length in seconds")
	parser.Int(&f.chunkSize, "n", "samples", "samples per chunk")
	parser.Float64(&f.threshold, "t", "threshold", "spike threshold level")
	parser.String(&f.polarity, "p", "polarity", "crossing polarity (negative, positive)")
	parser.Int(&f.holdoff, "ho", "holdoff", "spike refractory gap in samples")
	parser.Float64(&f.roiBeforeMs, "rb", "roi-before", "ROI before trigger in ms")
	parser.Float64(&f.roiAfterMs, "ra", "roi-after", "ROI after trigger in ms")
	parser.Float64(&f.binMs, "bs", "bin", "histogram bin size in ms")
	parser.Int(&f.groupSize, "g", "group", "channels per group (1-8)")
	parser.String(&f.disabled, "dc", "disabled", "comma-separated channel ids to skip")
	parser.Int(&f.triggerCh, "tc", "trigger-channel", "trigger channel (-1 for all)")
	parser.Int64(&f.seed, "s", "seed", "sim backend seed (0 uses the clock)")
	parser.Int(&f.frameRate, "f", "fps", "snapshot print rate per second")
	parser.Float64(&f.durationSecs, "d", "duration", "run time in seconds (0 runs until interrupted)")

	chk(parser.Parse(), "failed to parse arguments")

	if listBackendsCmd.Used {
		for _, backend := range input.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}
		return true
	}

	return false
}

func run(f *flags) error {
	cfg := config.Default()
	cfg.SampleRate = f.rate
	cfg.ChannelCount = f.channels
	cfg.BufferSamples = int(f.bufferSecs * f.rate)
	cfg.Threshold = f.threshold
	cfg.Holdoff = f.holdoff
	cfg.ChannelsPerGroup = f.groupSize
	cfg.ROIBefore = int64(f.roiBeforeMs / 1000 * f.rate)
	cfg.ROIAfter = int64(f.roiAfterMs / 1000 * f.rate)
	cfg.BinWidth = int64(f.binMs / 1000 * f.rate)
	cfg.TriggerChannel = f.triggerCh

	switch f.polarity {
	case "negative":
		cfg.Polarity = dsp.Negative
	case "positive":
		cfg.Polarity = dsp.Positive
	default:
		return errors.Errorf("unknown polarity %q", f.polarity)
	}

	if f.disabled != "" {
		cfg.DisabledChannels = make(map[int]bool)
		for _, part := range strings.Split(f.disabled, ",") {
			ch, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return errors.Wrapf(err, "bad disabled channel %q", part)
			}
			cfg.DisabledChannels[ch] = true
		}
	}

	coll, err := collector.New(cfg, log.Printf)
	if err != nil {
		return err
	}

	sim.DefaultOptions.Seed = f.seed

	backend, err := input.InitBackend(f.backend)
	if err != nil {
		return err
	}
	defer backend.Close()

	session, err := backend.Start(input.SessionConfig{
		ChannelCount: f.channels,
		SampleSize:   f.chunkSize,
		SampleRate:   f.rate,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start the input backend")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if f.durationSecs > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(f.durationSecs*float64(time.Second)))
		defer cancel()
	}

	go func() {
		if err := session.Start(ctx, coll); err != nil && !errors.Is(err, context.Canceled) {
			if !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("input session: %v", err)
			}
		}
	}()

	writer := NewWriter(os.Stdout, cfg.ChannelsPerGroup)

	// Process at a fixed cadence; print snapshots at the frame rate,
	// decoupled from ingestion.
	procTick := time.NewTicker(50 * time.Millisecond)
	defer procTick.Stop()

	frameRate := f.frameRate
	if frameRate < 1 {
		frameRate = 1
	}
	frameTick := time.NewTicker(time.Second / time.Duration(frameRate))
	defer frameTick.Stop()

	for {
		select {
		case <-ctx.Done():
			coll.Tick()
			writer.WriteStats(coll.Stats())
			return nil
		case <-procTick.C:
			coll.Tick()
		case <-frameTick.C:
			if err := writer.Write(coll.Snapshot()); err != nil {
				return err
			}
		}
	}
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatalln(wrap+": ", err)
	}
}
