package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/imecue/internal/config"
	"github.com/jmylchreest/imecue/internal/model"
)

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := NewPlayer(nil)
	assert.Equal(t, 1.0, p.Volume())

	p.SetVolume(0.25)
	assert.Equal(t, 0.25, p.Volume())

	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())

	p.SetVolume(3)
	assert.Equal(t, 1.0, p.Volume())
}

func TestVolumeExponent(t *testing.T) {
	assert.InDelta(t, 0, volumeExponent(1), 1e-9)
	assert.InDelta(t, -1, volumeExponent(0.5), 1e-9)
	assert.InDelta(t, -2, volumeExponent(0.25), 1e-9)
	assert.Equal(t, -10.0, volumeExponent(0))
}

func TestPlayer_LoadErrors(t *testing.T) {
	p := NewPlayer(nil)

	_, err := p.Load("/nonexistent/cue.flac")
	assert.ErrorContains(t, err, "unsupported audio format")

	_, err = p.Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorContains(t, err, "failed to open")

	bogus := filepath.Join(t.TempDir(), "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, []byte("not a wav file"), 0644))
	_, err = p.Load(bogus)
	assert.ErrorContains(t, err, "failed to decode")
}

func TestPlayer_PlayWithoutSpeakerIsNoop(t *testing.T) {
	p := NewPlayer(nil)
	p.Play(nil)
	p.Close()
}

func TestSink_SilentWithoutFiles(t *testing.T) {
	s, err := NewSink(config.SoundConfig{Enabled: true, Volume: 50}, nil)
	require.NoError(t, err)

	assert.Equal(t, "sound", s.Name())
	assert.Equal(t, 0.5, s.player.Volume())
	assert.NoError(t, s.Publish(model.ModeSecondary))
	assert.NoError(t, s.Publish(model.ModeAlphabetic))
	assert.NoError(t, s.Close())
}

func TestSink_BadFileFails(t *testing.T) {
	_, err := NewSink(config.SoundConfig{Enabled: true, Volume: 80, Secondary: "/nonexistent/zh.wav"}, nil)
	assert.Error(t, err)
}
