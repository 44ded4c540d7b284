package input

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Message kinds on the wire.
const (
	KindData      = "data"
	KindTrigger   = "ttl"
	KindHeartbeat = "heartbeat"
)

// ErrUnknownMessage reports a wire message whose type tag is not part of
// the closed variant set.
var ErrUnknownMessage = errors.New("input: unknown message type")

// Heartbeat is a keepalive from the acquisition source. It carries no
// payload; receiving one only proves the peer is alive.
type Heartbeat struct{}

// Message is the closed set of inbound payloads, decoded exactly once at
// the transport boundary. Exactly one of the pointers is non-nil.
type Message struct {
	Chunk     *Chunk
	Trigger   *Trigger
	Heartbeat *Heartbeat
}

// wireMessage is the JSON envelope used by the acquisition process.
type wireMessage struct {
	Type      string     `json:"type"`
	Index     int64      `json:"index"`
	Data      [][]Sample `json:"data"`
	Timestamp int64      `json:"timestamp"`
	Channel   int        `json:"channel"`
	Value     float64    `json:"value"`
}

// DecodeMessage parses one wire message into the tagged variant form.
func DecodeMessage(raw []byte) (Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Message{}, errors.Wrap(err, "input: malformed message")
	}

	switch wire.Type {
	case KindData:
		if len(wire.Data) == 0 {
			return Message{}, errors.New("input: data message with no channels")
		}
		for _, row := range wire.Data[1:] {
			if len(row) != len(wire.Data[0]) {
				return Message{}, errors.New("input: ragged channel rows")
			}
		}
		return Message{Chunk: &Chunk{Index: wire.Index, Data: wire.Data}}, nil

	case KindTrigger:
		return Message{Trigger: &Trigger{
			Timestamp: wire.Timestamp,
			Channel:   wire.Channel,
			Value:     wire.Value,
		}}, nil

	case KindHeartbeat:
		return Message{Heartbeat: &Heartbeat{}}, nil
	}

	return Message{}, errors.Wrapf(ErrUnknownMessage, "%q", wire.Type)
}
