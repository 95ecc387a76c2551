package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Color
		wantErr bool
	}{
		{"rgba", "#FF7800A0", Color(0xA0FF7800), false},
		{"rgb gets default alpha", "#0078FF", Color(0xA00078FF), false},
		{"no hash", "0078FF30", Color(0x300078FF), false},
		{"quoted", `"#FF780000"`, Color(0x00FF7800), false},
		{"lowercase", "#ff7800c8", Color(0xC8FF7800), false},
		{"too short", "#FFF", 0, true},
		{"not hex", "#GG7800", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColor_Components(t *testing.T) {
	c := RGBA(0xFF, 0x78, 0x00, 0xA0)
	assert.Equal(t, uint8(0xFF), c.R())
	assert.Equal(t, uint8(0x78), c.G())
	assert.Equal(t, uint8(0x00), c.B())
	assert.Equal(t, uint8(0xA0), c.A())
	assert.Equal(t, "#FF7800A0", c.Hex())
	assert.Equal(t, "#FF7800", c.RGBHex())
	assert.Equal(t, "rgba(255, 120, 0, 0.627)", c.CSS())
}

func TestColor_TextRoundTrip(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalText([]byte("#0078FF30")))
	assert.Equal(t, Color(0x300078FF), c)

	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#0078FF30", string(text))

	assert.Error(t, c.UnmarshalText([]byte("blue")))
}

func TestMustParseColor_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseColor("nope") })
	assert.NotPanics(t, func() { MustParseColor("#FFFFFF") })
}

func TestLEDPayload_Validate(t *testing.T) {
	valid := LEDPayload{R: 255, G: 13, B: 0, Pattern: "solid", Duration: 9999}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(*LEDPayload)
	}{
		{"red out of range", func(p *LEDPayload) { p.R = 256 }},
		{"negative green", func(p *LEDPayload) { p.G = -1 }},
		{"empty pattern", func(p *LEDPayload) { p.Pattern = "" }},
		{"negative duration", func(p *LEDPayload) { p.Duration = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.modify(&p)
			assert.Error(t, p.Validate())
		})
	}
}
