package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/imecue/internal/model"
	"github.com/jmylchreest/imecue/internal/store"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModel_WaitingWithoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ime_state")
	m := New(nil, path, nil)

	m, _ = update(t, m, m.load())
	assert.Contains(t, m.View(), "waiting for "+path)
}

func TestModel_ShowsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ime_state")
	require.NoError(t, store.NewStateFile(path).Publish(model.ModeSecondary))

	m := New(nil, path, nil)
	m, _ = update(t, m, m.load())

	view := m.View()
	assert.Contains(t, view, "zh secondary")
	assert.Contains(t, view, "updated")
}

func TestModel_ChangeMessageUpdatesAndRewaits(t *testing.T) {
	changes := make(chan store.Change, 1)
	m := New(nil, "/unused", changes)

	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at.Add(3 * time.Second) }

	m, cmd := update(t, m, changeMsg(store.Change{Exists: true, Mode: model.ModeAlphabetic, At: at}))
	assert.NotNil(t, cmd, "must keep waiting for the next change")
	assert.Contains(t, m.View(), "en alphabetic")
	assert.Contains(t, m.View(), "updated 3 seconds ago")

	changes <- store.Change{Exists: true, Mode: model.ModeSecondary, At: at}
	msg := cmd()
	m, _ = update(t, m, msg)
	assert.Contains(t, m.View(), "zh secondary")
}

func TestModel_InvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ime_state")
	require.NoError(t, os.WriteFile(path, []byte("fr"), 0644))

	m := New(nil, path, nil)
	m, _ = update(t, m, m.load())
	assert.Contains(t, m.View(), "invalid mode token")
}

func TestModel_Quit(t *testing.T) {
	m := New(nil, "/unused", nil)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_ClosedChannel(t *testing.T) {
	changes := make(chan store.Change)
	close(changes)
	m := New(nil, "/unused", changes)
	assert.Nil(t, m.waitForChange())
}

func TestLuminance(t *testing.T) {
	assert.Equal(t, 0, luminance(model.RGBA(0, 0, 0, 255)))
	assert.Equal(t, 255, luminance(model.RGBA(255, 255, 255, 255)))
	assert.Less(t, luminance(model.MustParseColor("#0078FF")), 128)
}
