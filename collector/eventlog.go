package collector

import (
	"github.com/spikeh/peth/input"
)

// Event is one recorded trigger plus its processing state. The log owns
// the record; processing only ever borrows it.
type Event struct {
	ID      uint64
	Trigger input.Trigger
}

// EventLog is the append-only record of trigger events. Events are ground
// truth from the acquisition source: an out-of-order timestamp is accepted
// and counted, never rejected.
type EventLog struct {
	events []Event
	nextID uint64

	acked map[uint64]bool

	// last timestamp seen per trigger channel, for burst suppression
	lastByChannel map[int]int64
	holdoff       int64

	outOfOrder uint64
	suppressed uint64
	lastTS     int64
	any        bool
}

// NewEventLog returns an empty log. holdoff is the minimum sample gap
// between two triggers on the same channel; a second trigger inside the
// gap is recorded as suppressed and dropped (broken-cable protection).
func NewEventLog(holdoff int64) *EventLog {
	return &EventLog{
		acked:         make(map[uint64]bool),
		lastByChannel: make(map[int]int64),
		holdoff:       holdoff,
	}
}

// Record appends a trigger in arrival order. Returns false if the trigger
// was suppressed by the holdoff.
func (l *EventLog) Record(t input.Trigger) bool {
	if l.any && t.Timestamp < l.lastTS {
		l.outOfOrder++
		if l.lastTS-t.Timestamp > l.holdoff {
			// Backward jump well beyond burst territory: the source
			// restarted, stale holdoff state no longer applies.
			l.lastByChannel = make(map[int]int64)
		}
	}
	l.lastTS = t.Timestamp
	l.any = true

	if last, ok := l.lastByChannel[t.Channel]; ok && l.holdoff > 0 {
		if t.Timestamp > last && t.Timestamp-last < l.holdoff {
			l.suppressed++
			return false
		}
	}
	l.lastByChannel[t.Channel] = t.Timestamp

	l.events = append(l.events, Event{ID: l.nextID, Trigger: t})
	l.nextID++
	return true
}

// Pending returns the events whose ROI has not been processed yet, oldest
// first. The slice is a fresh copy, safe to iterate while the log mutates.
func (l *EventLog) Pending() []Event {
	out := make([]Event, 0, len(l.events))
	for _, ev := range l.events {
		if !l.acked[ev.ID] {
			out = append(out, ev)
		}
	}
	return out
}

// Ack marks an event's ROI as processed so it is never reconsidered.
// Acking an unknown or already-acked ID is a no-op, which keeps the
// processing cycle idempotent.
func (l *EventLog) Ack(id uint64) {
	l.acked[id] = true
	l.prune()
}

// prune drops the acknowledged prefix so the log stays bounded.
func (l *EventLog) prune() {
	drop := 0
	for drop < len(l.events) && l.acked[l.events[drop].ID] {
		delete(l.acked, l.events[drop].ID)
		drop++
	}
	l.events = l.events[drop:]
}

// OutOfOrder returns how many triggers arrived with a timestamp behind
// their predecessor.
func (l *EventLog) OutOfOrder() uint64 { return l.outOfOrder }

// Suppressed returns how many triggers the holdoff dropped.
func (l *EventLog) Suppressed() uint64 { return l.suppressed }

// Len returns the number of unacknowledged events.
func (l *EventLog) Len() int {
	n := 0
	for _, ev := range l.events {
		if !l.acked[ev.ID] {
			n++
		}
	}
	return n
}
