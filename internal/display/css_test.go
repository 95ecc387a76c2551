package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/imecue/internal/model"
)

func TestSurfaceCSS(t *testing.T) {
	css := surfaceCSS("caret", 8, model.MustParseColor("#FF7800A0"))

	assert.Contains(t, css, "window.imecue-window-caret {")
	assert.Contains(t, css, ".imecue-dot-caret {")
	assert.Contains(t, css, "background-color: rgba(255, 120, 0, 0.627);")
	assert.Contains(t, css, "border-radius: 50%;")
	assert.Contains(t, css, "min-width: 8px;")
	assert.Contains(t, css, "min-height: 8px;")
}

func TestSurfaceCSS_PerSurfaceClasses(t *testing.T) {
	caret := surfaceCSS("caret", 8, model.MustParseColor("#FF7800A0"))
	pointer := surfaceCSS("pointer", 12, model.MustParseColor("#0078FF30"))

	assert.NotContains(t, caret, "pointer")
	assert.NotContains(t, pointer, "caret")
	assert.Contains(t, pointer, "min-width: 12px;")
}

func TestClampMargin(t *testing.T) {
	assert.Equal(t, 0, clampMargin(-5))
	assert.Equal(t, 0, clampMargin(0))
	assert.Equal(t, 42, clampMargin(42))
}

func TestDisplayError(t *testing.T) {
	err := &DisplayError{Message: "no display available"}
	assert.Equal(t, "no display available", err.Error())

	wrapped := &DisplayError{Message: "create failed", Cause: assert.AnError}
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Contains(t, wrapped.Error(), "create failed: ")
}
