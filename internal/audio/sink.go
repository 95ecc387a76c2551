package audio

import (
	"fmt"
	"log/slog"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/imecue/internal/config"
	"github.com/jmylchreest/imecue/internal/model"
)

// Sink plays a per-mode sound on every transition. Sounds are decoded once
// at construction so Publish never touches the disk.
type Sink struct {
	player  *Player
	buffers map[model.Mode]*beep.Buffer
	logger  *slog.Logger
}

// NewSink preloads the configured sounds. A mode without a file stays silent.
func NewSink(cfg config.SoundConfig, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("sink", "sound")

	player := NewPlayer(logger)
	player.SetVolume(float64(cfg.Volume) / 100)

	s := &Sink{
		player:  player,
		buffers: make(map[model.Mode]*beep.Buffer),
		logger:  logger,
	}

	for _, mode := range []model.Mode{model.ModeAlphabetic, model.ModeSecondary} {
		path := cfg.FileFor(mode)
		if path == "" {
			continue
		}
		buffer, err := player.Load(path)
		if err != nil {
			player.Close()
			return nil, fmt.Errorf("failed to load %s sound: %w", mode, err)
		}
		s.buffers[mode] = buffer
	}

	return s, nil
}

// Name identifies the sink in logs.
func (s *Sink) Name() string {
	return "sound"
}

// Publish plays the sound for mode without waiting for it to finish.
func (s *Sink) Publish(mode model.Mode) error {
	buffer, ok := s.buffers[mode]
	if !ok {
		return nil
	}
	s.player.Play(buffer)
	return nil
}

// Close releases the audio device.
func (s *Sink) Close() error {
	s.player.Close()
	return nil
}
