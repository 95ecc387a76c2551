package daemon

import (
	"context"
	"errors"
	"sync"

	"github.com/jmylchreest/imecue/internal/model"
)

type fakeModes struct {
	mu     sync.Mutex
	modes  []model.Mode // Returned in order; the last one repeats
	err    error
	calls  int
	onCall func(n int)
}

func (f *fakeModes) CurrentMode(ctx context.Context) (model.Mode, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	hook := f.onCall
	var mode model.Mode
	if len(f.modes) > 0 {
		idx := n - 1
		if idx >= len(f.modes) {
			idx = len(f.modes) - 1
		}
		mode = f.modes[idx]
	}
	err := f.err
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return mode, err
}

func (f *fakeModes) set(modes ...model.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = modes
	f.calls = 0
}

type fakePosition struct {
	samples []model.PositionSample // Returned in order; the last one repeats
	err     error
	calls   int
}

func (f *fakePosition) CurrentPosition(ctx context.Context) (model.PositionSample, error) {
	f.calls++
	if f.err != nil {
		return model.PositionSample{}, f.err
	}
	if len(f.samples) == 0 {
		return model.Absent(), nil
	}
	idx := f.calls - 1
	if idx >= len(f.samples) {
		idx = len(f.samples) - 1
	}
	return f.samples[idx], nil
}

type move struct{ x, y int }

type fakeSurface struct {
	mu       sync.Mutex
	shows    int
	hides    int
	moves    []move
	recolors []model.Color
	destroys int
}

func (f *fakeSurface) Show() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shows++
}

func (f *fakeSurface) Hide() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hides++
}

func (f *fakeSurface) Move(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, move{x, y})
}

func (f *fakeSurface) Recolor(color model.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recolors = append(f.recolors, color)
}

func (f *fakeSurface) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys++
}

func (f *fakeSurface) toggles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shows + f.hides
}

type fakeSink struct {
	mu        sync.Mutex
	name      string
	published []model.Mode
	err       error
	closes    int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Publish(mode model.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, mode)
	return f.err
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

var errFake = errors.New("fake failure")
