package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/imecue/internal/model"
	"github.com/jmylchreest/imecue/internal/store"
)

var getOpts struct {
	format string
	quiet  bool
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current input-method mode",
	Long: `Print the input-method mode from the state file.

Formats:
  token  "zh" or "en", exactly as written by imecued (default)
  name   "secondary" or "alphabetic"
  json   {"token": ..., "mode": ..., "updated": ...}

With --quiet nothing is printed and the exit code carries the mode
(0 = alphabetic, 1 = secondary), which suits shell prompts:

  imecue get -q || echo "中"`,
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOpts.format, "format", "f", "token",
		"Output format (token, name, json)")
	getCmd.Flags().BoolVarP(&getOpts.quiet, "quiet", "q", false,
		"Suppress output, return exit code only (0=alphabetic, 1=secondary)")
}

// modeReport is the JSON shape printed by `get --format json`.
type modeReport struct {
	Token   string    `json:"token"`
	Mode    string    `json:"mode"`
	Updated time.Time `json:"updated"`
}

func runGet(cmd *cobra.Command, args []string) error {
	path, err := statePath()
	if err != nil {
		return fmt.Errorf("failed to resolve state file: %w", err)
	}

	sf := store.NewStateFile(path)
	mode, err := sf.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no state file at %s (is imecued running?)", path)
		}
		return err
	}

	if getOpts.quiet {
		if mode == model.ModeSecondary {
			os.Exit(1)
		}
		return nil
	}

	updated, err := sf.ModTime()
	if err != nil {
		logger.Debug("failed to stat state file", "path", path, "error", err)
	}
	return writeMode(cmd.OutOrStdout(), getOpts.format, mode, updated)
}

func writeMode(w io.Writer, format string, mode model.Mode, updated time.Time) error {
	switch format {
	case "token", "":
		_, err := fmt.Fprintln(w, mode.Token())
		return err
	case "name":
		_, err := fmt.Fprintln(w, mode.String())
		return err
	case "json":
		return json.NewEncoder(w).Encode(modeReport{
			Token:   mode.Token(),
			Mode:    mode.String(),
			Updated: updated,
		})
	default:
		return fmt.Errorf("unknown format %q (valid: token, name, json)", format)
	}
}
