package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/imecue/internal/model"
	"github.com/jmylchreest/imecue/internal/store"
)

var statusOpts struct {
	secondaryText  string
	alphabeticText string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the input-method mode in Waybar's custom module JSON format.

This is designed to be used with Waybar's custom module:

  "custom/ime": {
    "exec": "imecue status",
    "interval": 1,
    "return-type": "json"
  }

The output includes:
  - text: Label for the current mode (see --secondary-text/--alphabetic-text)
  - alt: Mode name (secondary, alphabetic, unknown, error)
  - tooltip: Mode and how long ago it changed
  - class: CSS class, same as alt`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusOpts.secondaryText, "secondary-text", "中",
		"Text shown in the secondary mode")
	statusCmd.Flags().StringVar(&statusOpts.alphabeticText, "alphabetic-text", "EN",
		"Text shown in alphabetic mode")
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := statePath()
	if err != nil {
		return outputStatus(WaybarStatus{Text: "", Alt: "error", Class: "error", Tooltip: err.Error()})
	}

	sf := store.NewStateFile(path)
	mode, err := sf.Read()
	var updated time.Time
	if err == nil {
		updated, err = sf.ModTime()
	}
	return outputStatus(generateStatus(mode, updated, err, time.Now()))
}

// generateStatus creates a WaybarStatus from a state file read.
func generateStatus(mode model.Mode, updated time.Time, readErr error, now time.Time) WaybarStatus {
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			return WaybarStatus{
				Text:    "",
				Alt:     "unknown",
				Tooltip: "imecued is not running",
				Class:   "unknown",
			}
		}
		return WaybarStatus{
			Text:    "",
			Alt:     "error",
			Tooltip: readErr.Error(),
			Class:   "error",
		}
	}

	text := statusOpts.alphabeticText
	if mode == model.ModeSecondary {
		text = statusOpts.secondaryText
	}

	return WaybarStatus{
		Text:    text,
		Alt:     mode.String(),
		Tooltip: buildTooltip(mode, updated, now),
		Class:   mode.String(),
	}
}

func buildTooltip(mode model.Mode, updated time.Time, now time.Time) string {
	lines := []string{fmt.Sprintf("Input mode: %s (%s)", mode.String(), mode.Token())}
	if !updated.IsZero() {
		lines = append(lines, "Changed "+humanize.RelTime(updated, now, "ago", "from now"))
	}
	return strings.Join(lines, "\n")
}

// outputStatus writes the status as JSON.
func outputStatus(status WaybarStatus) error {
	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(status)
}
