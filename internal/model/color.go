package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultAlpha is used when a colour is given as #RRGGBB.
const DefaultAlpha = 0xA0

// Color is a packed ARGB colour (0xAARRGGBB).
type Color uint32

// RGBA builds a Color from its components.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA". The leading '#' and surrounding
// quotes are optional.
func ParseColor(s string) (Color, error) {
	clean := strings.TrimPrefix(strings.Trim(strings.TrimSpace(s), `"`), "#")
	if len(clean) != 6 && len(clean) != 8 {
		return 0, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}

	v, err := strconv.ParseUint(clean, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}

	if len(clean) == 6 {
		return Color(DefaultAlpha<<24 | uint32(v)), nil
	}
	// RRGGBBAA -> AARRGGBB
	return Color(uint32(v)>>8 | uint32(v)<<24), nil
}

// MustParseColor is like ParseColor but panics on error. Used for defaults.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// Hex returns the colour as "#RRGGBBAA".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R(), c.G(), c.B(), c.A())
}

// RGBHex returns the colour as "#RRGGBB", dropping alpha (for terminals).
func (c Color) RGBHex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R(), c.G(), c.B())
}

// CSS returns the colour as a CSS rgba() expression.
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %.3f)", c.R(), c.G(), c.B(), float64(c.A())/255)
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// LEDPayload is the message published on the LED topic for ambient hardware.
type LEDPayload struct {
	R        int    `json:"r" toml:"r" yaml:"r"`
	G        int    `json:"g" toml:"g" yaml:"g"`
	B        int    `json:"b" toml:"b" yaml:"b"`
	Pattern  string `json:"pattern" toml:"pattern" yaml:"pattern"`
	Duration int    `json:"duration" toml:"duration" yaml:"duration"`
}

// Validate checks component ranges.
func (p LEDPayload) Validate() error {
	for name, v := range map[string]int{"r": p.R, "g": p.G, "b": p.B} {
		if v < 0 || v > 255 {
			return fmt.Errorf("led %s must be between 0 and 255, got %d", name, v)
		}
	}
	if p.Pattern == "" {
		return fmt.Errorf("led pattern cannot be empty")
	}
	if p.Duration < 0 {
		return fmt.Errorf("led duration must not be negative, got %d", p.Duration)
	}
	return nil
}
