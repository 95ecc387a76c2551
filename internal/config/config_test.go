package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/imecue/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100*time.Millisecond, cfg.Poll.StateInterval.Duration())
	assert.Equal(t, 10*time.Millisecond, cfg.Poll.TrackInterval.Duration())
	assert.Equal(t, BackendFcitx5, cfg.Mode.Backend)

	assert.True(t, cfg.Caret.Enable)
	assert.Equal(t, 8, cfg.Caret.Size)
	assert.Equal(t, 0, cfg.Caret.OffsetX)
	assert.True(t, cfg.Caret.ShowAlphabetic)

	assert.True(t, cfg.Pointer.Enable)
	assert.Equal(t, 2, cfg.Pointer.OffsetX)
	assert.Equal(t, 18, cfg.Pointer.OffsetY)

	assert.True(t, cfg.Bridge.Enabled)
	assert.False(t, cfg.Bridge.MQTT.Enabled)
	assert.Equal(t, "ime/state", cfg.Bridge.MQTT.IMETopic)
	assert.Equal(t, "claude/led", cfg.Bridge.MQTT.LEDTopic)
	assert.Equal(t, "tcp://localhost:1883", cfg.Bridge.MQTT.BrokerURL())

	require.NoError(t, cfg.Validate())
}

func TestTemplate_MatchesDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, toml.Unmarshal([]byte(Template()), cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imecued.toml")
	content := `
[poll]
state_interval = "200ms"
track_interval = 20

[caret]
enable = false
color_secondary = "#112233"

[pointer]
size = 12
offset_x = -4
show_alphabetic = false

[bridge]
state_file = "/tmp/imecue-test-state"

[bridge.mqtt]
enabled = true
host = "broker.lan"
port = 8883

[bridge.mqtt.led_secondary]
r = 1
g = 2
b = 3
pattern = "blink"
duration = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, cfg.Poll.StateInterval.Duration())
	assert.Equal(t, 20*time.Millisecond, cfg.Poll.TrackInterval.Duration())
	assert.False(t, cfg.Caret.Enable)
	assert.Equal(t, model.Color(0xA0112233), cfg.Caret.ColorSecondary)
	assert.Equal(t, 12, cfg.Pointer.Size)
	assert.Equal(t, -4, cfg.Pointer.OffsetX)
	assert.False(t, cfg.Pointer.ShowAlphabetic)
	assert.Equal(t, "tcp://broker.lan:8883", cfg.Bridge.MQTT.BrokerURL())
	assert.Equal(t, model.LEDPayload{R: 1, G: 2, B: 3, Pattern: "blink", Duration: 10}, cfg.Bridge.MQTT.LEDSecondary)

	// Untouched sections keep their defaults
	assert.Equal(t, DefaultConfig().Bridge.MQTT.LEDAlphabetic, cfg.Bridge.MQTT.LEDAlphabetic)
	assert.Equal(t, DefaultConfig().Pointer.ColorSecondary, cfg.Pointer.ColorSecondary)

	statePath, err := cfg.StateFilePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/imecue-test-state", statePath)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imecued.toml")
	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imecued.toml")
	require.NoError(t, os.WriteFile(path, []byte("[caret]\ncolor_secondary = \"orange\"\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"track longer than state", func(c *Config) { c.Poll.TrackInterval = Duration(time.Second) }},
		{"zero state interval", func(c *Config) { c.Poll.StateInterval = 0 }},
		{"unknown backend", func(c *Config) { c.Mode.Backend = "ibus" }},
		{"zero mode timeout", func(c *Config) { c.Mode.Timeout = 0 }},
		{"caret too small", func(c *Config) { c.Caret.Size = 0 }},
		{"pointer too big", func(c *Config) { c.Pointer.Size = 1000 }},
		{"mqtt bad port", func(c *Config) {
			c.Bridge.MQTT.Enabled = true
			c.Bridge.MQTT.Port = 0
		}},
		{"mqtt empty topic", func(c *Config) {
			c.Bridge.MQTT.Enabled = true
			c.Bridge.MQTT.IMETopic = ""
		}},
		{"mqtt bad led", func(c *Config) {
			c.Bridge.MQTT.Enabled = true
			c.Bridge.MQTT.LEDSecondary.R = 300
		}},
		{"volume out of range", func(c *Config) { c.Bridge.Sound.Volume = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_LEDIgnoredWithoutTopic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.MQTT.Enabled = true
	cfg.Bridge.MQTT.LEDTopic = ""
	cfg.Bridge.MQTT.LEDSecondary = model.LEDPayload{}
	assert.NoError(t, cfg.Validate())
}

func TestIndicatorConfig_ColorFor(t *testing.T) {
	cfg := DefaultConfig().Caret
	assert.Equal(t, cfg.ColorSecondary, cfg.ColorFor(model.ModeSecondary))
	assert.Equal(t, cfg.ColorAlphabetic, cfg.ColorFor(model.ModeAlphabetic))
}

func TestMQTTConfig_LEDFor(t *testing.T) {
	cfg := DefaultConfig().Bridge.MQTT
	assert.Equal(t, 255, cfg.LEDFor(model.ModeSecondary).R)
	assert.Equal(t, 100, cfg.LEDFor(model.ModeAlphabetic).R)
}

func TestSoundConfig_FileFor(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := SoundConfig{Secondary: "~/sounds/zh.wav", Alphabetic: "/abs/en.ogg"}
	assert.Equal(t, "/home/tester/sounds/zh.wav", cfg.FileFor(model.ModeSecondary))
	assert.Equal(t, "/abs/en.ogg", cfg.FileFor(model.ModeAlphabetic))
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"100ms", 100 * time.Millisecond, false},
		{"1s", time.Second, false},
		{"250", 250 * time.Millisecond, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "imecued.toml")

	cfg := DefaultConfig()
	cfg.Pointer.Size = 16
	cfg.Bridge.MQTT.Host = "10.0.0.2"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imecue", "imecued.toml")

	require.NoError(t, WriteTemplate(path, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Template(), string(data))

	assert.Error(t, WriteTemplate(path, false), "existing file must not be overwritten")
	assert.NoError(t, WriteTemplate(path, true))
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/imecue/imecued.toml", path)
}

func TestDefaultStateFilePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	path, err := DefaultStateFilePath()
	require.NoError(t, err)
	assert.Equal(t, "/custom/data/imecue/ime_state", path)

	cfg := DefaultConfig()
	got, err := cfg.StateFilePath()
	require.NoError(t, err)
	assert.Equal(t, path, got)
}
