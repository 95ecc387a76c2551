package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/imecue/internal/model"
)

// AT-SPI endpoints.
const (
	a11yBusName      = "org.a11y.Bus"
	a11yBusPath      = "/org/a11y/bus"
	a11yGetAddress   = "org.a11y.Bus.GetAddress"
	registryBusName  = "org.a11y.atspi.Registry"
	registryPath     = "/org/a11y/atspi/registry"
	registerEvent    = "org.a11y.atspi.Registry.RegisterEvent"
	eventObjectIface = "org.a11y.atspi.Event.Object"
	textIface        = "org.a11y.atspi.Text"
	propertiesGet    = "org.freedesktop.DBus.Properties.Get"

	memberCaretMoved   = "TextCaretMoved"
	memberStateChanged = "StateChanged"
)

// coordTypeScreen asks AT-SPI for screen-relative coordinates.
const coordTypeScreen = uint32(0)

// focusedText is the accessible object that last reported a caret.
type focusedText struct {
	sender    string
	path      dbus.ObjectPath
	offset    int32
	hasOffset bool
}

// CaretTracker follows the text caret of the focused application through
// AT-SPI events and answers position queries with the caret's screen extents.
type CaretTracker struct {
	conn    *dbus.Conn
	object  func(dest string, path dbus.ObjectPath) dbus.BusObject
	timeout time.Duration
	logger  *slog.Logger

	signals chan *dbus.Signal
	done    chan struct{}
	wg      sync.WaitGroup

	mu    sync.Mutex
	focus *focusedText
}

// NewCaretTracker connects to the accessibility bus and subscribes to caret
// and focus events.
func NewCaretTracker(timeout time.Duration, logger *slog.Logger) (*CaretTracker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	addr, err := accessibilityBusAddress(timeout)
	if err != nil {
		return nil, err
	}

	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to accessibility bus: %w", err)
	}

	t := newCaretTracker(timeout, logger)
	t.conn = conn
	t.object = conn.Object

	for _, event := range []string{"object:text-caret-moved", "object:state-changed:focused"} {
		if err := t.register(event); err != nil {
			// Older registries need no registration; events still arrive
			logger.Debug("failed to register AT-SPI event", "event", event, "error", err)
		}
	}

	for _, member := range []string{memberCaretMoved, memberStateChanged} {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(eventObjectIface),
			dbus.WithMatchMember(member),
		); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", member, err)
		}
	}

	conn.Signal(t.signals)
	t.wg.Add(1)
	go t.listen()

	logger.Debug("caret tracker started", "bus", addr)
	return t, nil
}

func newCaretTracker(timeout time.Duration, logger *slog.Logger) *CaretTracker {
	return &CaretTracker{
		timeout: timeout,
		logger:  logger,
		signals: make(chan *dbus.Signal, 64),
		done:    make(chan struct{}),
	}
}

func accessibilityBusAddress(timeout time.Duration) (string, error) {
	session, err := dbus.SessionBus()
	if err != nil {
		return "", fmt.Errorf("failed to connect to session bus: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var addr string
	err = session.Object(a11yBusName, a11yBusPath).CallWithContext(ctx, a11yGetAddress, 0).Store(&addr)
	if err != nil {
		return "", fmt.Errorf("failed to get accessibility bus address: %w", err)
	}
	return addr, nil
}

func (t *CaretTracker) register(event string) error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	registry := t.conn.Object(registryBusName, registryPath)
	err := registry.CallWithContext(ctx, registerEvent, 0, event, []string{}, "").Err
	if err == nil {
		return nil
	}
	// at-spi2-core before 2.46 takes the event name only
	return registry.CallWithContext(ctx, registerEvent, 0, event).Err
}

func (t *CaretTracker) listen() {
	defer t.wg.Done()
	for {
		select {
		case sig, ok := <-t.signals:
			if !ok {
				return
			}
			t.handleSignal(sig)
		case <-t.done:
			return
		}
	}
}

// handleSignal updates the focused object from one AT-SPI event.
// Event bodies are (kind string, detail1 int32, detail2 int32, any_data variant, ...).
func (t *CaretTracker) handleSignal(sig *dbus.Signal) {
	if sig == nil || len(sig.Body) < 2 {
		return
	}
	detail1, ok := sig.Body[1].(int32)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch sig.Name {
	case eventObjectIface + "." + memberCaretMoved:
		t.focus = &focusedText{sender: sig.Sender, path: sig.Path, offset: detail1, hasOffset: true}

	case eventObjectIface + "." + memberStateChanged:
		kind, _ := sig.Body[0].(string)
		if kind != "focused" {
			return
		}
		if detail1 == 1 {
			t.focus = &focusedText{sender: sig.Sender, path: sig.Path}
			return
		}
		if t.focus != nil && t.focus.sender == sig.Sender && t.focus.path == sig.Path {
			t.focus = nil
		}
	}
}

func (t *CaretTracker) focused() *focusedText {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.focus == nil {
		return nil
	}
	f := *t.focus
	return &f
}

// CurrentPosition returns the bottom-left corner of the caret with the caret
// height as extent, or an absent sample when no text field has focus.
func (t *CaretTracker) CurrentPosition(ctx context.Context) (model.PositionSample, error) {
	focus := t.focused()
	if focus == nil {
		return model.Absent(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	obj := t.object(focus.sender, focus.path)

	offset := focus.offset
	if !focus.hasOffset {
		var v dbus.Variant
		if err := obj.CallWithContext(ctx, propertiesGet, 0, textIface, "CaretOffset").Store(&v); err != nil {
			return model.Absent(), fmt.Errorf("failed to read caret offset: %w", err)
		}
		if err := v.Store(&offset); err != nil {
			return model.Absent(), fmt.Errorf("invalid caret offset: %w", err)
		}
	}

	var x, y, w, h int32
	call := obj.CallWithContext(ctx, textIface+".GetCharacterExtents", 0, offset, coordTypeScreen)
	if err := call.Store(&x, &y, &w, &h); err != nil {
		return model.Absent(), fmt.Errorf("failed to get caret extents: %w", err)
	}

	return sampleFromExtents(x, y, w, h), nil
}

// sampleFromExtents converts character extents to a caret sample. Toolkits
// report all zeros (or a negative origin) when the caret is not on screen.
func sampleFromExtents(x, y, w, h int32) model.PositionSample {
	if (x == 0 && y == 0 && w == 0 && h == 0) || x < 0 || y < 0 {
		return model.Absent()
	}
	return model.AtWithExtent(int(x), int(y+h), int(h))
}

// Close stops listening and closes the accessibility bus connection.
func (t *CaretTracker) Close() error {
	select {
	case <-t.done:
		return nil
	default:
	}
	close(t.done)

	var err error
	if t.conn != nil {
		t.conn.RemoveSignal(t.signals)
		err = t.conn.Close()
	}
	t.wg.Wait()
	return err
}
