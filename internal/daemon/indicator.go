package daemon

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/imecue/internal/config"
	"github.com/jmylchreest/imecue/internal/model"
)

// Kind distinguishes the caret and pointer indicators.
type Kind int

const (
	// KindCaret follows the text caret and is only shown while a caret is resolvable.
	KindCaret Kind = iota
	// KindPointer follows the mouse pointer.
	KindPointer
)

// String returns the indicator name used for logs and surface namespaces.
func (k Kind) String() string {
	switch k {
	case KindCaret:
		return "caret"
	case KindPointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Indicator drives one surface from the mode and its position provider.
// It is owned by the engine goroutine and is not safe for concurrent use.
type Indicator struct {
	kind     Kind
	cfg      config.IndicatorConfig
	provider PositionProvider
	surface  Surface
	logger   *slog.Logger

	active    bool
	rendered  bool // lastX/lastY hold the position last passed to Move
	lastX     int
	lastY     int
	colored   bool // lastColor holds the colour last passed to Recolor
	lastColor model.Color
	destroyed bool
}

// NewIndicator creates an inactive indicator. The surface is owned by the
// indicator from now on and destroyed by Cleanup.
func NewIndicator(kind Kind, cfg config.IndicatorConfig, provider PositionProvider, surface Surface, logger *slog.Logger) *Indicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indicator{
		kind:     kind,
		cfg:      cfg,
		provider: provider,
		surface:  surface,
		logger:   logger.With("indicator", kind.String()),
	}
}

// Kind returns the indicator kind.
func (i *Indicator) Kind() Kind {
	return i.kind
}

// Active reports whether the surface is currently shown.
func (i *Indicator) Active() bool {
	return i.active
}

// Enabled reports whether the indicator takes part in the loop at all.
func (i *Indicator) Enabled() bool {
	return i.cfg.Enable && !i.destroyed
}

// Evaluate recomputes visibility for mode and shows or hides the surface on
// an edge. Called on coarse ticks only.
func (i *Indicator) Evaluate(ctx context.Context, mode model.Mode) {
	if !i.Enabled() {
		return
	}

	wanted := mode == model.ModeSecondary || i.cfg.ShowAlphabetic
	if i.kind == KindCaret {
		wanted = wanted && i.sample(ctx).Present
	}

	if wanted == i.active {
		return
	}
	if wanted {
		i.Show()
	} else {
		i.Hide()
	}
}

// Track moves and recolours an active indicator. mode is the value from the
// most recent coarse tick.
func (i *Indicator) Track(ctx context.Context, mode model.Mode) {
	if !i.Enabled() || !i.active {
		return
	}

	s := i.sample(ctx)
	if !s.Present {
		return
	}

	extent := 0
	if s.HasExtent {
		extent = s.Extent
	}
	i.Update(s.X, s.Y, mode, extent)
}

// Show makes the surface visible.
func (i *Indicator) Show() {
	if i.destroyed {
		return
	}
	i.active = true
	i.surface.Show()
	i.logger.Debug("indicator shown")
}

// Hide hides the surface.
func (i *Indicator) Hide() {
	if i.destroyed {
		return
	}
	i.active = false
	i.surface.Hide()
	i.logger.Debug("indicator hidden")
}

// Update places the dot relative to (x, y) and colours it for mode.
// The caret dot sits above the caret baseline, so extent is subtracted.
// Move and Recolor are skipped when nothing changed.
func (i *Indicator) Update(x, y int, mode model.Mode, extent int) {
	if i.destroyed {
		return
	}

	px := x + i.cfg.OffsetX
	py := y + i.cfg.OffsetY
	if i.kind == KindCaret {
		py -= extent
	}

	if !i.rendered || px != i.lastX || py != i.lastY {
		i.surface.Move(px, py)
		i.lastX, i.lastY = px, py
		i.rendered = true
	}

	color := i.cfg.ColorFor(mode)
	if !i.colored || color != i.lastColor {
		i.surface.Recolor(color)
		i.lastColor = color
		i.colored = true
	}
}

// Cleanup destroys the surface. Safe to call more than once.
func (i *Indicator) Cleanup() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.active = false
	if i.surface != nil {
		i.surface.Destroy()
	}
}

func (i *Indicator) sample(ctx context.Context) model.PositionSample {
	if i.provider == nil {
		return model.Absent()
	}
	s, err := i.provider.CurrentPosition(ctx)
	if err != nil {
		i.logger.Debug("position unavailable", "error", err)
		return model.Absent()
	}
	return s
}
