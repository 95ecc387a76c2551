// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/imecue/internal/model"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "10ms", "1s", or a bare integer number of milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '10ms', '1s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for imecued.
// Loaded from ~/.config/imecue/imecued.toml and never mutated afterwards.
type Config struct {
	Poll    PollConfig      `toml:"poll" yaml:"poll"`
	Mode    ModeConfig      `toml:"mode" yaml:"mode"`
	Caret   IndicatorConfig `toml:"caret" yaml:"caret"`
	Pointer IndicatorConfig `toml:"pointer" yaml:"pointer"`
	Bridge  BridgeConfig    `toml:"bridge" yaml:"bridge"`
}

// PollConfig holds the two scheduler intervals.
type PollConfig struct {
	StateInterval Duration `toml:"state_interval" yaml:"state_interval"` // Mode/visibility re-evaluation
	TrackInterval Duration `toml:"track_interval" yaml:"track_interval"` // Position tracking
}

// ModeConfig selects the input-method backend.
type ModeConfig struct {
	Backend string   `toml:"backend" yaml:"backend"` // "fcitx5" or "fcitx"
	Timeout Duration `toml:"timeout" yaml:"timeout"` // Per-query D-Bus timeout
}

// IndicatorConfig configures one on-screen dot (caret or pointer).
type IndicatorConfig struct {
	Enable          bool        `toml:"enable" yaml:"enable"`
	Size            int         `toml:"size" yaml:"size"`
	ColorSecondary  model.Color `toml:"color_secondary" yaml:"color_secondary"`
	ColorAlphabetic model.Color `toml:"color_alphabetic" yaml:"color_alphabetic"`
	OffsetX         int         `toml:"offset_x" yaml:"offset_x"`
	OffsetY         int         `toml:"offset_y" yaml:"offset_y"`
	ShowAlphabetic  bool        `toml:"show_alphabetic" yaml:"show_alphabetic"`
}

// ColorFor returns the indicator colour for a mode.
func (c IndicatorConfig) ColorFor(mode model.Mode) model.Color {
	if mode == model.ModeSecondary {
		return c.ColorSecondary
	}
	return c.ColorAlphabetic
}

// BridgeConfig configures the notification sinks.
type BridgeConfig struct {
	Enabled   bool        `toml:"enabled" yaml:"enabled"`
	StateFile string      `toml:"state_file" yaml:"state_file"` // Empty = default data path
	MQTT      MQTTConfig  `toml:"mqtt" yaml:"mqtt"`
	Sound     SoundConfig `toml:"sound" yaml:"sound"`
}

// MQTTConfig configures the pub/sub sink.
type MQTTConfig struct {
	Enabled        bool             `toml:"enabled" yaml:"enabled"`
	Host           string           `toml:"host" yaml:"host"`
	Port           int              `toml:"port" yaml:"port"`
	IMETopic       string           `toml:"ime_topic" yaml:"ime_topic"`
	LEDTopic       string           `toml:"led_topic" yaml:"led_topic"` // Empty disables LED payloads
	ConnectTimeout Duration         `toml:"connect_timeout" yaml:"connect_timeout"`
	LEDSecondary   model.LEDPayload `toml:"led_secondary" yaml:"led_secondary"`
	LEDAlphabetic  model.LEDPayload `toml:"led_alphabetic" yaml:"led_alphabetic"`
}

// BrokerURL returns the paho broker URL.
func (c MQTTConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

// LEDFor returns the LED payload for a mode.
func (c MQTTConfig) LEDFor(mode model.Mode) model.LEDPayload {
	if mode == model.ModeSecondary {
		return c.LEDSecondary
	}
	return c.LEDAlphabetic
}

// SoundConfig configures the optional audible cue.
type SoundConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Volume     int    `toml:"volume" yaml:"volume"`         // 0-100
	Secondary  string `toml:"secondary" yaml:"secondary"`   // Played when switching to the secondary mode
	Alphabetic string `toml:"alphabetic" yaml:"alphabetic"` // Played when switching to alphabetic
}

// FileFor returns the sound file for a mode with ~ expanded. Empty means silent.
func (c SoundConfig) FileFor(mode model.Mode) string {
	if mode == model.ModeSecondary {
		return expandPath(c.Secondary)
	}
	return expandPath(c.Alphabetic)
}

// Mode backends.
const (
	BackendFcitx5 = "fcitx5"
	BackendFcitx  = "fcitx"
)

// ValidBackends returns all valid mode backends.
func ValidBackends() []string {
	return []string{BackendFcitx5, BackendFcitx}
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Poll: PollConfig{
			StateInterval: Duration(100 * time.Millisecond),
			TrackInterval: Duration(10 * time.Millisecond),
		},
		Mode: ModeConfig{
			Backend: BackendFcitx5,
			Timeout: Duration(50 * time.Millisecond),
		},
		Caret: IndicatorConfig{
			Enable:          true,
			Size:            8,
			ColorSecondary:  model.MustParseColor("#FF7800A0"),
			ColorAlphabetic: model.MustParseColor("#0078FF30"),
			OffsetX:         0,
			OffsetY:         0,
			ShowAlphabetic:  true,
		},
		Pointer: IndicatorConfig{
			Enable:          true,
			Size:            8,
			ColorSecondary:  model.MustParseColor("#FF7800A0"),
			ColorAlphabetic: model.MustParseColor("#0078FF30"),
			OffsetX:         2,
			OffsetY:         18,
			ShowAlphabetic:  true,
		},
		Bridge: BridgeConfig{
			Enabled:   true,
			StateFile: "",
			MQTT: MQTTConfig{
				Enabled:        false,
				Host:           "localhost",
				Port:           1883,
				IMETopic:       "ime/state",
				LEDTopic:       "claude/led",
				ConnectTimeout: Duration(2 * time.Second),
				LEDSecondary:   model.LEDPayload{R: 255, G: 13, B: 0, Pattern: "solid", Duration: 9999},
				LEDAlphabetic:  model.LEDPayload{R: 100, G: 180, B: 255, Pattern: "solid", Duration: 9999},
			},
			Sound: SoundConfig{
				Enabled: false,
				Volume:  80,
			},
		},
	}
}

// Path returns the path to the daemon config file.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "imecue", "imecued.toml"), nil
}

// DataDir returns the imecue data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "imecue"), nil
}

// DefaultStateFilePath returns the default path of the bridge state file.
func DefaultStateFilePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "ime_state"), nil
}

// StateFilePath returns the configured state file path, falling back to the default.
func (c *Config) StateFilePath() (string, error) {
	if c.Bridge.StateFile != "" {
		return expandPath(c.Bridge.StateFile), nil
	}
	return DefaultStateFilePath()
}

// Load loads the configuration from path (or Path() when empty).
// If the file doesn't exist, returns the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path atomically, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return writeAtomic(path, data)
}

// WriteTemplate writes the commented default template to path.
// It refuses to overwrite an existing file unless force is set.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeAtomic(path, []byte(Template()))
}

func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	state := c.Poll.StateInterval.Duration()
	track := c.Poll.TrackInterval.Duration()
	if state <= 0 || track <= 0 {
		return fmt.Errorf("poll intervals must be positive, got state=%s track=%s", state, track)
	}
	// A track interval longer than the state interval would degrade state ticks to track granularity
	if track > state {
		return fmt.Errorf("track_interval (%s) must not exceed state_interval (%s)", track, state)
	}

	validBackend := false
	for _, b := range ValidBackends() {
		if c.Mode.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid mode backend %q, must be one of: %v", c.Mode.Backend, ValidBackends())
	}
	if c.Mode.Timeout.Duration() <= 0 {
		return fmt.Errorf("mode timeout must be positive, got %s", c.Mode.Timeout.Duration())
	}

	for name, ind := range map[string]IndicatorConfig{"caret": c.Caret, "pointer": c.Pointer} {
		if ind.Size < 1 || ind.Size > 256 {
			return fmt.Errorf("%s size must be between 1 and 256, got %d", name, ind.Size)
		}
	}

	mqtt := c.Bridge.MQTT
	if mqtt.Enabled {
		if mqtt.Host == "" {
			return fmt.Errorf("mqtt host cannot be empty")
		}
		if mqtt.Port < 1 || mqtt.Port > 65535 {
			return fmt.Errorf("mqtt port must be between 1 and 65535, got %d", mqtt.Port)
		}
		if mqtt.IMETopic == "" {
			return fmt.Errorf("mqtt ime_topic cannot be empty")
		}
		if mqtt.ConnectTimeout.Duration() <= 0 {
			return fmt.Errorf("mqtt connect_timeout must be positive")
		}
		if mqtt.LEDTopic != "" {
			if err := mqtt.LEDSecondary.Validate(); err != nil {
				return fmt.Errorf("led_secondary: %w", err)
			}
			if err := mqtt.LEDAlphabetic.Validate(); err != nil {
				return fmt.Errorf("led_alphabetic: %w", err)
			}
		}
	}

	if v := c.Bridge.Sound.Volume; v < 0 || v > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", v)
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
