// Package daemon provides the core loop of imecued.
// It fuses the input-method mode with caret and pointer positions, drives
// the two overlay indicators and edge-triggers the notification bridge.
package daemon

import (
	"context"

	"github.com/jmylchreest/imecue/internal/model"
)

// ModeProvider reports the current input-method mode.
type ModeProvider interface {
	CurrentMode(ctx context.Context) (model.Mode, error)
}

// PositionProvider reports the caret or pointer position.
// An absent sample is a valid answer and is not an error.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (model.PositionSample, error)
}

// Surface is one on-screen dot.
type Surface interface {
	Show()
	Hide()
	Move(x, y int)
	Recolor(color model.Color)
	Destroy()
}

// SurfaceFactory creates surfaces for indicators.
type SurfaceFactory interface {
	Create(name string, size int, colorSecondary, colorAlphabetic model.Color) (Surface, error)
}

// Sink receives the mode on every transition.
type Sink interface {
	Name() string
	Publish(mode model.Mode) error
	Close() error
}
