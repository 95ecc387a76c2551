package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/imecue/internal/store"
	"github.com/jmylchreest/imecue/internal/tui"
)

var watchOpts struct {
	plain bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the input-method mode live",
	Long: `Follow the state file and show every mode change as it happens.

By default an interactive view shows a badge in the configured indicator
colours. With --plain, one line per change is printed instead:

  imecue watch --plain | while read -r ts token; do ...; done

Key bindings (interactive view):
  r           Re-read the state file
  ?           Show help
  q           Quit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOpts.plain, "plain", false,
		"Print one line per change instead of the interactive view")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := statePath()
	if err != nil {
		return fmt.Errorf("failed to resolve state file: %w", err)
	}

	if !watchOpts.plain {
		return tui.Run(tui.RunOptions{Config: cfg, Path: path})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchPlain(ctx, cmd.OutOrStdout(), path)
}

// watchPlain prints the current mode, then one line per change until ctx ends.
func watchPlain(ctx context.Context, w io.Writer, path string) error {
	watcher, err := store.NewWatcher(path, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer func() { _ = watcher.Stop() }()

	if mode, err := store.ReadMode(path); err == nil {
		printChange(w, store.Change{Mode: mode, Exists: true, At: time.Now()})
	} else if !os.IsNotExist(err) {
		logger.Warn("failed to read state file", "path", path, "error", err)
	}

	changes := watcher.Changes()
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			printChange(w, change)
		}
	}
}

func printChange(w io.Writer, change store.Change) {
	ts := change.At.Format(time.RFC3339)
	switch {
	case !change.Exists:
		fmt.Fprintf(w, "%s gone\n", ts)
	case change.Err != nil:
		logger.Warn("unexpected state file content", "error", change.Err)
	default:
		fmt.Fprintf(w, "%s %s\n", ts, change.Mode.Token())
	}
}
