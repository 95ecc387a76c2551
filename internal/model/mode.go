// Package model defines the core data structures for imecue.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the current input-method state.
type Mode int

const (
	// ModeAlphabetic means keystrokes produce latin letters directly.
	ModeAlphabetic Mode = iota
	// ModeSecondary means an input method (e.g. pinyin) is composing a secondary script.
	ModeSecondary
)

// Bridge tokens written to the state file and the IME topic.
const (
	TokenAlphabetic = "en"
	TokenSecondary  = "zh"
)

// ErrInvalidMode is returned when a token is neither TokenAlphabetic nor TokenSecondary.
var ErrInvalidMode = errors.New("invalid mode token")

// Token returns the bridge token for the mode.
func (m Mode) Token() string {
	if m == ModeSecondary {
		return TokenSecondary
	}
	return TokenAlphabetic
}

// String returns the human-readable name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAlphabetic:
		return "alphabetic"
	case ModeSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// ParseMode parses a bridge token. Surrounding whitespace is ignored so a
// trailing newline written by another tool is accepted.
func ParseMode(token string) (Mode, error) {
	switch strings.TrimSpace(token) {
	case TokenAlphabetic:
		return ModeAlphabetic, nil
	case TokenSecondary:
		return ModeSecondary, nil
	default:
		return ModeAlphabetic, fmt.Errorf("%w: %q", ErrInvalidMode, token)
	}
}

// PositionSample is an optional screen position reported by a position provider.
// An absent sample (Present == false) means no caret or pointer is resolvable
// right now; it is a valid state, not an error.
type PositionSample struct {
	X, Y      int
	Extent    int // Caret height; only meaningful when HasExtent is set
	HasExtent bool
	Present   bool
}

// Absent returns a sample carrying no position.
func Absent() PositionSample {
	return PositionSample{}
}

// At returns a present sample without an extent.
func At(x, y int) PositionSample {
	return PositionSample{X: x, Y: y, Present: true}
}

// AtWithExtent returns a present sample with a caret height.
func AtWithExtent(x, y, extent int) PositionSample {
	return PositionSample{X: x, Y: y, Extent: extent, HasExtent: true, Present: true}
}
