package display

import (
	"fmt"
	"log/slog"
	"sync"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/imecue/internal/daemon"
	"github.com/jmylchreest/imecue/internal/model"
)

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}

// SurfaceFactory creates indicator surfaces owned by a GTK application.
type SurfaceFactory struct {
	app     *gtk.Application
	display *gdk.Display
	logger  *slog.Logger
}

// NewSurfaceFactory must be called on the GTK main thread after the
// application has been activated.
func NewSurfaceFactory(app *gtk.Application, logger *slog.Logger) (*SurfaceFactory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil, &DisplayError{Message: "no display available"}
	}
	return &SurfaceFactory{app: app, display: display, logger: logger}, nil
}

// Create builds a hidden surface. Must be called on the GTK main thread.
func (f *SurfaceFactory) Create(name string, size int, colorSecondary, colorAlphabetic model.Color) (daemon.Surface, error) {
	if size < 1 {
		return nil, &DisplayError{Message: fmt.Sprintf("invalid %s surface size %d", name, size)}
	}

	s := &Surface{
		name:    name,
		size:    size,
		display: f.display,
		logger:  f.logger.With("surface", name),
	}

	s.window = gtk.NewWindow()
	s.window.SetApplication(f.app)
	s.window.SetDecorated(false)
	s.window.SetResizable(false)
	s.window.SetDefaultSize(size, size)
	s.window.SetCanTarget(false)
	s.window.AddCSSClass(windowClass(name))

	layershell.InitForWindow(s.window)
	layershell.SetLayer(s.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(s.window, -1) // Ignore other surfaces' exclusive zones
	layershell.SetKeyboardMode(s.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(s.window, "imecue-"+name)
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeLeft, true)
	layershell.SetMargin(s.window, layershell.LayerShellEdgeTop, 0)
	layershell.SetMargin(s.window, layershell.LayerShellEdgeLeft, 0)

	s.dot = gtk.NewBox(gtk.OrientationHorizontal, 0)
	s.dot.AddCSSClass(dotClass(name))
	s.dot.SetSizeRequest(size, size)
	s.window.SetChild(s.dot)

	// One provider per surface so recolouring one dot leaves the other alone
	s.provider = gtk.NewCSSProvider()
	s.provider.LoadFromString(surfaceCSS(name, size, colorAlphabetic))
	gtk.StyleContextAddProviderForDisplay(
		f.display,
		s.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)

	s.logger.Debug("surface created", "size", size,
		"color_secondary", colorSecondary.Hex(), "color_alphabetic", colorAlphabetic.Hex())
	return s, nil
}

// Surface is one indicator dot. Its methods may be called from any goroutine;
// the GTK work is queued onto the main loop.
type Surface struct {
	name    string
	size    int
	display *gdk.Display
	logger  *slog.Logger

	window   *gtk.Window
	dot      *gtk.Box
	provider *gtk.CSSProvider

	mu        sync.Mutex
	destroyed bool
}

// TODO: give the window an empty input region once realized so clicks on the
// dot reach the application underneath.

// Show makes the dot visible.
func (s *Surface) Show() {
	s.idle(func() {
		s.window.SetVisible(true)
	})
}

// Hide hides the dot.
func (s *Surface) Hide() {
	s.idle(func() {
		s.window.SetVisible(false)
	})
}

// Move places the top-left corner of the dot at (x, y).
func (s *Surface) Move(x, y int) {
	x, y = clampMargin(x), clampMargin(y)
	s.idle(func() {
		layershell.SetMargin(s.window, layershell.LayerShellEdgeLeft, x)
		layershell.SetMargin(s.window, layershell.LayerShellEdgeTop, y)
	})
}

// Recolor changes the dot colour.
func (s *Surface) Recolor(color model.Color) {
	css := surfaceCSS(s.name, s.size, color)
	s.idle(func() {
		s.provider.LoadFromString(css)
	})
}

// Destroy removes the window and its style provider. Later calls on the
// surface are ignored.
func (s *Surface) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.mu.Unlock()

	glib.IdleAdd(func() {
		gtk.StyleContextRemoveProviderForDisplay(s.display, s.provider)
		s.window.Destroy()
		s.logger.Debug("surface destroyed")
	})
}

// idle queues fn on the GTK main loop unless the surface has been destroyed.
func (s *Surface) idle(fn func()) {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return
	}

	glib.IdleAdd(func() {
		s.mu.Lock()
		destroyed := s.destroyed
		s.mu.Unlock()
		if !destroyed {
			fn()
		}
	})
}
