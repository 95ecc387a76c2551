// Package tui provides the live terminal view of the bridge state file.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/imecue/internal/config"
	"github.com/jmylchreest/imecue/internal/model"
	"github.com/jmylchreest/imecue/internal/store"
)

// Model is the bubbletea model for `imecue watch`.
type Model struct {
	cfg     *config.Config
	path    string
	changes <-chan store.Change

	current store.Change
	loaded  bool

	spinner  spinner.Model
	help     help.Model
	keys     KeyMap
	now      func() time.Time
	width    int
	quitting bool
}

// New creates the watch model. changes may be nil, in which case the file is
// only read on start and on refresh.
func New(cfg *config.Config, path string, changes <-chan store.Change) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	return Model{
		cfg:     cfg,
		path:    path,
		changes: changes,
		spinner: s,
		help:    help.New(),
		keys:    DefaultKeyMap(),
		now:     time.Now,
	}
}

type loadedMsg store.Change

type changeMsg store.Change

type tickMsg time.Time

// Init starts the spinner, reads the file and begins listening for changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.load,
		m.waitForChange,
		tick(),
	)
}

// load reads the state file directly.
func (m Model) load() tea.Msg {
	return loadedMsg(readChange(m.path))
}

func readChange(path string) store.Change {
	sf := store.NewStateFile(path)
	mode, err := sf.Read()
	if err != nil {
		if mtime, statErr := sf.ModTime(); statErr == nil {
			return store.Change{Exists: true, Err: err, At: mtime}
		}
		return store.Change{}
	}
	mtime, _ := sf.ModTime()
	return store.Change{Exists: true, Mode: mode, At: mtime}
}

// waitForChange blocks on the watcher channel.
func (m Model) waitForChange() tea.Msg {
	if m.changes == nil {
		return nil
	}
	c, ok := <-m.changes
	if !ok {
		return nil
	}
	return changeMsg(c)
}

// tick refreshes the relative "updated ... ago" text.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.current = store.Change(msg)
		m.loaded = true
		return m, nil

	case changeMsg:
		m.current = store.Change(msg)
		m.loaded = true
		return m, m.waitForChange

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current mode badge.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var body string
	switch {
	case !m.loaded || !m.current.Exists:
		body = m.spinner.View() + " waiting for " + m.path
	case m.current.Err != nil:
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.current.Err.Error())
	default:
		body = m.badge(m.current.Mode)
		if !m.current.At.IsZero() {
			body += " " + dim.Render("updated "+humanize.RelTime(m.current.At, m.now(), "ago", "from now"))
		}
	}

	return fmt.Sprintf("%s\n\n%s\n", body, m.help.View(m.keys))
}

// badge renders the mode in the pointer indicator's colour for that mode.
func (m Model) badge(mode model.Mode) string {
	color := m.cfg.Pointer.ColorFor(mode)
	fg := lipgloss.Color("#000000")
	if luminance(color) < 128 {
		fg = lipgloss.Color("#FFFFFF")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(fg).
		Background(lipgloss.Color(color.RGBHex())).
		Render(fmt.Sprintf("%s %s", mode.Token(), mode))
}

// luminance approximates perceived brightness (0-255).
func luminance(c model.Color) int {
	return (299*int(c.R()) + 587*int(c.G()) + 114*int(c.B())) / 1000
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config *config.Config
	Path   string // State file to watch
}

// Run starts the watch TUI and blocks until the user quits.
func Run(opts RunOptions) error {
	watcher, err := store.NewWatcher(opts.Path, nil)
	var changes <-chan store.Change
	if err == nil {
		if startErr := watcher.Start(); startErr == nil {
			changes = watcher.Changes()
		}
		defer func() { _ = watcher.Stop() }()
	}

	m := New(opts.Config, opts.Path, changes)
	_, err = tea.NewProgram(m).Run()
	return err
}
