// Package dbus talks to the session services imecued depends on: the fcitx
// input-method framework, the AT-SPI accessibility bus and the desktop
// notification service.
package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/imecue/internal/config"
	"github.com/jmylchreest/imecue/internal/model"
)

// ErrUnavailable is returned when the queried service is not on the bus.
var ErrUnavailable = errors.New("service unavailable")

// fcitx D-Bus endpoints.
const (
	fcitx5BusName = "org.fcitx.Fcitx5"
	fcitx5Path    = "/controller"
	fcitx5Method  = "org.fcitx.Fcitx.Controller1.State"

	fcitx4BusName = "org.fcitx.Fcitx"
	fcitx4Path    = "/inputmethod"
	fcitx4Method  = "org.fcitx.Fcitx.InputMethod.GetCurrentState"
)

// fcitxStateActive is the fcitx state of an active (composing) input method.
// 0 is closed and 1 is inactive; both mean keystrokes go through unchanged.
const fcitxStateActive = 2

// FcitxModeProvider reads the input-method mode from fcitx5 or fcitx4.
type FcitxModeProvider struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	method  string
	busName string
	timeout time.Duration
	logger  *slog.Logger
}

// NewFcitxModeProvider connects to the session bus. The fcitx service does
// not have to be running yet; queries fail with ErrUnavailable until it is.
func NewFcitxModeProvider(backend string, timeout time.Duration, logger *slog.Logger) (*FcitxModeProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var busName, path, method string
	switch backend {
	case config.BackendFcitx5:
		busName, path, method = fcitx5BusName, fcitx5Path, fcitx5Method
	case config.BackendFcitx:
		busName, path, method = fcitx4BusName, fcitx4Path, fcitx4Method
	default:
		return nil, fmt.Errorf("unknown mode backend %q", backend)
	}

	// Private connection so Close does not tear down the shared session bus
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &FcitxModeProvider{
		conn:    conn,
		obj:     conn.Object(busName, dbus.ObjectPath(path)),
		method:  method,
		busName: busName,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// CurrentMode queries the input-method state.
func (p *FcitxModeProvider) CurrentMode(ctx context.Context) (model.Mode, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var state int32
	if err := p.obj.CallWithContext(ctx, p.method, 0).Store(&state); err != nil {
		if isServiceUnknown(err) {
			return model.ModeAlphabetic, fmt.Errorf("%w: %s", ErrUnavailable, p.busName)
		}
		return model.ModeAlphabetic, fmt.Errorf("failed to query %s: %w", p.busName, err)
	}
	return modeFromState(state), nil
}

// Close closes the bus connection.
func (p *FcitxModeProvider) Close() error {
	return p.conn.Close()
}

func modeFromState(state int32) model.Mode {
	if state >= fcitxStateActive {
		return model.ModeSecondary
	}
	return model.ModeAlphabetic
}

// isServiceUnknown reports whether err is the bus saying no one owns the name.
func isServiceUnknown(err error) bool {
	const (
		serviceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"
		nameHasNoOwner = "org.freedesktop.DBus.Error.NameHasNoOwner"
	)
	var dErr dbus.Error
	if errors.As(err, &dErr) {
		return dErr.Name == serviceUnknown || dErr.Name == nameHasNoOwner
	}
	var dErrPtr *dbus.Error
	if errors.As(err, &dErrPtr) && dErrPtr != nil {
		return dErrPtr.Name == serviceUnknown || dErrPtr.Name == nameHasNoOwner
	}
	return false
}
