package daemon

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/imecue/internal/model"
)

// trackedSink remembers the last mode pushed through one sink.
type trackedSink struct {
	sink Sink
	last model.Mode
	set  bool
}

// Bridge edge-triggers every sink once per mode transition. Each sink tracks
// its own last mode, so a failing sink never suppresses the others.
type Bridge struct {
	sinks   []*trackedSink
	logger  *slog.Logger
	onError func(sink string, err error)
	closed  bool
}

// NewBridge creates a bridge over sinks. Nil sinks are ignored.
func NewBridge(logger *slog.Logger, sinks ...Sink) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{logger: logger}
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, &trackedSink{sink: s})
		}
	}
	return b
}

// SetErrorHandler sets a function called for every failed publish.
func (b *Bridge) SetErrorHandler(handler func(sink string, err error)) {
	b.onError = handler
}

// Len returns the number of sinks.
func (b *Bridge) Len() int {
	return len(b.sinks)
}

// Last returns the mode last published through the named sink.
func (b *Bridge) Last(name string) (model.Mode, bool) {
	for _, ts := range b.sinks {
		if ts.sink.Name() == name {
			return ts.last, ts.set
		}
	}
	return model.ModeAlphabetic, false
}

// Publish pushes mode to every sink whose last mode differs (or is unset).
// A failed publish still records the mode: the transition is attempted at
// most once and not retried on later ticks.
func (b *Bridge) Publish(mode model.Mode) error {
	if b.closed {
		return nil
	}

	var errs []error
	for _, ts := range b.sinks {
		if ts.set && ts.last == mode {
			continue
		}
		ts.last = mode
		ts.set = true

		name := ts.sink.Name()
		if err := ts.sink.Publish(mode); err != nil {
			b.logger.Warn("bridge publish failed", "sink", name, "mode", mode.Token(), "error", err)
			if b.onError != nil {
				b.onError(name, err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		b.logger.Debug("bridge published", "sink", name, "mode", mode.Token())
	}
	return errors.Join(errs...)
}

// Close closes every sink once.
func (b *Bridge) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, ts := range b.sinks {
		if err := ts.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s sink: %w", ts.sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
