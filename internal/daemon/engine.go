package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/imecue/internal/model"
)

// EngineOptions wires the engine's collaborators. Caret, Pointer and Bridge
// may be nil when the corresponding output is disabled.
type EngineOptions struct {
	Modes         ModeProvider
	Caret         *Indicator
	Pointer       *Indicator
	Bridge        *Bridge
	StateInterval time.Duration // Coarse tick: mode, visibility, bridge
	TrackInterval time.Duration // Fine tick: position tracking
	Logger        *slog.Logger
}

// Engine is the dual-rate loop. Every tick tracks the positions of active
// indicators; when StateInterval has elapsed since the last coarse tick it
// also re-reads the mode, re-evaluates visibility and edge-triggers the bridge.
//
// Tick and Run must be called from a single goroutine.
type Engine struct {
	modes   ModeProvider
	caret   *Indicator
	pointer *Indicator
	bridge  *Bridge
	logger  *slog.Logger

	stateInterval time.Duration
	trackInterval time.Duration
	now           func() time.Time

	mode       model.Mode
	modeRead   bool // The provider has answered at least once
	lastCoarse time.Time
	started    bool

	closeOnce sync.Once
	closeErr  error
}

// NewEngine creates an engine. The initial mode is alphabetic until the first
// coarse tick reads the provider.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Modes == nil {
		return nil, errors.New("mode provider is required")
	}
	if opts.StateInterval <= 0 || opts.TrackInterval <= 0 {
		return nil, fmt.Errorf("intervals must be positive, got state=%s track=%s", opts.StateInterval, opts.TrackInterval)
	}
	if opts.TrackInterval > opts.StateInterval {
		return nil, fmt.Errorf("track interval (%s) must not exceed state interval (%s)", opts.TrackInterval, opts.StateInterval)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bridge := opts.Bridge
	if bridge == nil {
		bridge = NewBridge(logger)
	}

	return &Engine{
		modes:         opts.Modes,
		caret:         opts.Caret,
		pointer:       opts.Pointer,
		bridge:        bridge,
		logger:        logger,
		stateInterval: opts.StateInterval,
		trackInterval: opts.TrackInterval,
		now:           time.Now,
		mode:          model.ModeAlphabetic,
	}, nil
}

// SetClock replaces the time source used by Run.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Mode returns the mode read at the most recent coarse tick.
func (e *Engine) Mode() model.Mode {
	return e.mode
}

// Tick runs one loop iteration at time now. The first call always runs the
// coarse phase.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	if !e.started || now.Sub(e.lastCoarse) >= e.stateInterval {
		e.coarse(ctx)
		e.lastCoarse = now
		e.started = true
	}
	e.fine(ctx)
}

func (e *Engine) coarse(ctx context.Context) {
	mode, err := e.modes.CurrentMode(ctx)
	if err != nil {
		e.logger.Debug("mode unavailable, keeping previous", "mode", e.mode.Token(), "error", err)
		mode = e.mode
	} else {
		e.modeRead = true
	}
	if mode != e.mode {
		e.logger.Info("mode changed", "from", e.mode.Token(), "to", mode.Token())
	}
	e.mode = mode

	// The initial alphabetic mode is a guess; sinks wait for a real reading
	if e.modeRead {
		if err := e.bridge.Publish(mode); err != nil {
			e.logger.Debug("bridge publish incomplete", "error", err)
		}
	}

	if e.caret != nil {
		e.caret.Evaluate(ctx, mode)
	}
	if e.pointer != nil {
		e.pointer.Evaluate(ctx, mode)
	}
}

func (e *Engine) fine(ctx context.Context) {
	if e.caret != nil {
		e.caret.Track(ctx, e.mode)
	}
	if e.pointer != nil {
		e.pointer.Track(ctx, e.mode)
	}
}

// Run ticks every TrackInterval until ctx is cancelled, then tears down the
// indicators and sinks. Cancellation is not an error.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		if err := e.Close(); err != nil {
			e.logger.Warn("cleanup failed", "error", err)
		}
	}()

	e.logger.Info("engine started",
		"state_interval", e.stateInterval,
		"track_interval", e.trackInterval,
		"sinks", e.bridge.Len(),
	)

	ticker := time.NewTicker(e.trackInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", "mode", e.mode.Token())
			return nil
		default:
		}

		e.Tick(ctx, e.now())

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

// Close destroys both surfaces and closes every sink. Only the first call
// does any work.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.caret != nil {
			e.caret.Cleanup()
		}
		if e.pointer != nil {
			e.pointer.Cleanup()
		}
		e.closeErr = e.bridge.Close()
	})
	return e.closeErr
}
