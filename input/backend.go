package input

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Sink receives decoded payloads from a running session. Both methods are
// bounded, non-blocking handoffs: a sink stages the payload and returns.
type Sink interface {
	Ingest(Chunk)
	Notify(Trigger)
}

// SessionConfig describes the stream a backend should produce.
type SessionConfig struct {
	ChannelCount int     // number of channels per chunk
	SampleSize   int     // number of samples per chunk
	SampleRate   float64 // sample rate
}

type Backend interface {
	// Init should do nothing if called more than once.
	Init() error
	Close() error

	Start(SessionConfig) (Session, error)
}

// Session produces chunks and triggers until the context is cancelled.
type Session interface {
	Start(ctx context.Context, sink Sink) error
}

type NamedBackend struct {
	Name string
	Backend
}

var Backends []NamedBackend

// RegisterBackend registers a backend globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterBackend(name string, b Backend) {
	Backends = append(Backends, NamedBackend{
		Name:    name,
		Backend: b,
	})
}

// FindBackend is a helper function that finds a backend. It returns nil if
// the backend is not found.
func FindBackend(name string) Backend {
	for _, backend := range Backends {
		if backend.Name == name {
			return backend
		}
	}
	return nil
}

func InitBackend(bknd string) (Backend, error) {
	backend := FindBackend(bknd)
	if backend == nil {
		return nil, fmt.Errorf("backend not found: %q; check list-backends", bknd)
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize input backend")
	}

	return backend, nil
}
