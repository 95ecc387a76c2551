// Package main is the entry point for the imecued indicator daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/imecue/internal/audio"
	"github.com/jmylchreest/imecue/internal/config"
	"github.com/jmylchreest/imecue/internal/daemon"
	"github.com/jmylchreest/imecue/internal/dbus"
	"github.com/jmylchreest/imecue/internal/display"
	"github.com/jmylchreest/imecue/internal/mqtt"
	"github.com/jmylchreest/imecue/internal/store"
	"github.com/jmylchreest/imecue/internal/x11"
)

const (
	appID   = "io.github.jmylchreest.imecued"
	appName = "imecued"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the whole daemon lifetime. It returns the exit status so deferred
// teardown runs before the process exits.
func run(args []string) int {
	flags := flag.NewFlagSet(appName, flag.ContinueOnError)
	configPath := flags.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/imecue/imecued.toml)")
	headless := flags.Bool("headless", false, "Run without overlays (state file, MQTT and sound only)")
	debug := flags.Bool("debug", false, "Enable debug logging")
	showVersion := flags.Bool("version", false, "Show version and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		println(appName, "version", version)
		return 0
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	deps, err := newDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return 1
	}
	defer deps.Close()

	if *headless {
		runHeadless(cfg, deps, logger)
		return 0
	}
	return runGUI(cfg, deps, logger)
}

// dependencies holds everything that outlives the engine: providers, the
// bridge and the desktop notifier.
type dependencies struct {
	modes    *dbus.FcitxModeProvider
	caret    *dbus.CaretTracker
	pointer  *x11.PointerProvider
	bridge   *daemon.Bridge
	notifier *daemon.Notifier
	desktop  *dbus.DesktopNotifier
	logger   *slog.Logger
}

func newDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	d := &dependencies{logger: logger}

	d.notifier = daemon.NewNotifier(logger)
	desktop, err := dbus.NewDesktopNotifier(2 * time.Second)
	if err != nil {
		logger.Warn("desktop notifications unavailable", "error", err)
	} else {
		d.desktop = desktop
		d.notifier.SetSendFunc(func(n daemon.Notification) error {
			_, err := desktop.Send(dbus.NewNotification(n.Summary, n.Body, n.Level.Icon(), n.Level.Urgency()))
			return err
		})
	}

	modes, err := dbus.NewFcitxModeProvider(cfg.Mode.Backend, cfg.Mode.Timeout.Duration(), logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.modes = modes

	d.bridge = newBridge(cfg, d.notifier, logger)
	return d, nil
}

// newBridge assembles the enabled sinks. A sink that cannot start is
// reported once and left out (or kept as a disabled no-op for MQTT).
func newBridge(cfg *config.Config, notifier *daemon.Notifier, logger *slog.Logger) *daemon.Bridge {
	var sinks []daemon.Sink

	if cfg.Bridge.Enabled {
		path, err := cfg.StateFilePath()
		if err != nil {
			logger.Warn("state file disabled", "error", err)
			notifier.NotifySinkDisabled("file", err)
		} else {
			sinks = append(sinks, store.NewStateFile(path))
			logger.Info("state file bridge enabled", "path", path)
		}
	}

	if cfg.Bridge.MQTT.Enabled {
		sink, err := mqtt.Dial(cfg.Bridge.MQTT, logger)
		if err != nil {
			logger.Warn("mqtt bridge disabled", "broker", cfg.Bridge.MQTT.BrokerURL(), "error", err)
			notifier.NotifySinkDisabled("mqtt", err)
		}
		sinks = append(sinks, sink)
	}

	if cfg.Bridge.Sound.Enabled {
		sink, err := audio.NewSink(cfg.Bridge.Sound, logger)
		if err != nil {
			logger.Warn("sound cue disabled", "error", err)
			notifier.NotifySinkDisabled("sound", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	bridge := daemon.NewBridge(logger, sinks...)
	bridge.SetErrorHandler(notifier.NotifySinkError)
	return bridge
}

// startProviders opens the caret and pointer providers for the enabled
// indicators. An indicator whose provider is unavailable stays off; the
// config is left untouched.
func (d *dependencies) startProviders(cfg *config.Config) {
	if cfg.Caret.Enable {
		caret, err := dbus.NewCaretTracker(cfg.Mode.Timeout.Duration(), d.logger)
		if err != nil {
			d.logger.Warn("caret indicator disabled: accessibility bus unavailable", "error", err)
		} else {
			d.caret = caret
		}
	}
	if cfg.Pointer.Enable {
		pointer, err := x11.NewPointerProvider()
		if err != nil {
			d.logger.Warn("pointer indicator disabled: X server unavailable", "error", err)
		} else {
			d.pointer = pointer
		}
	}
}

// caretProvider returns the caret provider, or nil when it is unavailable.
func (d *dependencies) caretProvider() daemon.PositionProvider {
	if d.caret == nil {
		return nil
	}
	return d.caret
}

// pointerProvider returns the pointer provider, or nil when it is unavailable.
func (d *dependencies) pointerProvider() daemon.PositionProvider {
	if d.pointer == nil {
		return nil
	}
	return d.pointer
}

// Close releases the providers and the notifier connection. Sinks are closed
// by the engine.
func (d *dependencies) Close() {
	if d.caret != nil {
		_ = d.caret.Close()
	}
	if d.pointer != nil {
		_ = d.pointer.Close()
	}
	if d.modes != nil {
		_ = d.modes.Close()
	}
	if d.desktop != nil {
		_ = d.desktop.Close()
	}
}

func newEngine(cfg *config.Config, d *dependencies, caret, pointer *daemon.Indicator) (*daemon.Engine, error) {
	return daemon.NewEngine(daemon.EngineOptions{
		Modes:         d.modes,
		Caret:         caret,
		Pointer:       pointer,
		Bridge:        d.bridge,
		StateInterval: cfg.Poll.StateInterval.Duration(),
		TrackInterval: cfg.Poll.TrackInterval.Duration(),
		Logger:        d.logger,
	})
}

func logBanner(cfg *config.Config, d *dependencies, headless bool, logger *slog.Logger) {
	logger.Info("starting "+appName, "version", version, "headless", headless)
	if headless {
		return
	}
	if cfg.Caret.Enable && d.caretProvider() != nil {
		logger.Info("caret indicator on", "size", cfg.Caret.Size)
	}
	if cfg.Pointer.Enable && d.pointerProvider() != nil {
		logger.Info("pointer indicator on", "size", cfg.Pointer.Size)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// runHeadless drives the bridge only, with no overlays.
func runHeadless(cfg *config.Config, d *dependencies, logger *slog.Logger) {
	logBanner(cfg, d, true, logger)

	engine, err := newEngine(cfg, d, nil, nil)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		return
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := engine.Run(ctx); err != nil {
		logger.Error("engine stopped with error", "error", err)
	}
	logger.Info(appName + " stopped")
}

// runGUI runs the engine alongside a libadwaita application that owns the
// overlay windows. It returns the process exit status.
func runGUI(cfg *config.Config, d *dependencies, logger *slog.Logger) int {
	d.startProviders(cfg)
	logBanner(cfg, d, false, logger)

	app := adw.NewApplication(appID, 0)
	ctx, cancel := signalContext(logger)
	defer cancel()

	var (
		running    atomic.Bool
		engineDone = make(chan struct{})
	)

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		factory, err := display.NewSurfaceFactory(&app.Application, logger)
		if err != nil {
			logger.Error("failed to initialize display", "error", err)
			close(engineDone)
			app.Quit()
			return
		}

		caret := newIndicator(factory, daemon.KindCaret, cfg.Caret, d.caretProvider(), logger)
		pointer := newIndicator(factory, daemon.KindPointer, cfg.Pointer, d.pointerProvider(), logger)

		engine, err := newEngine(cfg, d, caret, pointer)
		if err != nil {
			logger.Error("failed to create engine", "error", err)
			close(engineDone)
			app.Quit()
			return
		}

		go func() {
			defer close(engineDone)
			if err := engine.Run(ctx); err != nil {
				logger.Error("engine stopped with error", "error", err)
			}
			// Queued after the surface teardown
			glib.IdleAdd(func() {
				app.Quit()
			})
		}()

		logger.Info(appName + " ready")

		// Create a hidden window to keep the application running
		// (GTK apps quit when all windows are closed)
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		if running.Load() {
			select {
			case <-engineDone:
			case <-time.After(time.Second):
				logger.Warn("engine did not stop in time")
			}
		}
		running.Store(false)
	})

	// Flags were consumed by the flag package; GApplication gets no options
	status := app.Run([]string{os.Args[0]})
	if status != 0 {
		logger.Error("application exited with error", "status", status)
	}
	return status
}

// newIndicator creates the surface for an enabled indicator. Returns nil
// when the indicator is off, has no provider or its surface cannot be created.
func newIndicator(factory daemon.SurfaceFactory, kind daemon.Kind, cfg config.IndicatorConfig, provider daemon.PositionProvider, logger *slog.Logger) *daemon.Indicator {
	if !cfg.Enable || provider == nil {
		return nil
	}
	surface, err := factory.Create(kind.String(), cfg.Size, cfg.ColorSecondary, cfg.ColorAlphabetic)
	if err != nil {
		logger.Warn("indicator disabled: failed to create surface", "indicator", kind.String(), "error", err)
		return nil
	}
	return daemon.NewIndicator(kind, cfg, provider, surface, logger)
}
