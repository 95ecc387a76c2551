package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmylchreest/imecue/internal/model"
)

// StateFile is the file sink of the bridge. Each Publish fully overwrites the
// file with the mode token so readers never observe a partial write.
type StateFile struct {
	path string
}

// NewStateFile creates a state file sink for path. Nothing is written until the
// first Publish.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Name identifies the sink in logs.
func (s *StateFile) Name() string {
	return "file"
}

// Path returns the state file path.
func (s *StateFile) Path() string {
	return s.path
}

// Publish writes the token for mode, replacing the previous content.
func (s *StateFile) Publish(mode model.Mode) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(mode.Token()), 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Read returns the mode currently recorded in the file.
func (s *StateFile) Read() (model.Mode, error) {
	return ReadMode(s.path)
}

// ModTime returns when the file was last written.
func (s *StateFile) ModTime() (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Close is a no-op; the file is not held open between writes.
func (s *StateFile) Close() error {
	return nil
}

// ReadMode reads and parses the token stored at path.
func ReadMode(path string) (model.Mode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ModeAlphabetic, err
	}
	mode, err := model.ParseMode(string(data))
	if err != nil {
		return model.ModeAlphabetic, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return mode, nil
}
