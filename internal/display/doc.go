// Package display draws the indicator dots as small borderless GTK4 windows
// on the Wayland layer-shell overlay layer. Positioning is done through
// layer-shell margins from the top-left corner of the output.
package display
