package display

import (
	"fmt"

	"github.com/jmylchreest/imecue/internal/model"
)

func windowClass(name string) string {
	return "imecue-window-" + name
}

func dotClass(name string) string {
	return "imecue-dot-" + name
}

// surfaceCSS styles the window transparent and the dot as a filled circle.
func surfaceCSS(name string, size int, color model.Color) string {
	return fmt.Sprintf(`window.%s {
	background: transparent;
	box-shadow: none;
}
.%s {
	background-color: %s;
	border-radius: 50%%;
	min-width: %dpx;
	min-height: %dpx;
}
`, windowClass(name), dotClass(name), color.CSS(), size, size)
}

// clampMargin keeps a layer-shell margin on the output; negative margins
// would push the dot past the anchored edge.
func clampMargin(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
