package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoFile is returned by Load when the file does not exist.
var ErrNoFile = errors.New("file does not exist")

// PresetFile is a preset document on disk.
type PresetFile struct {
	mu   sync.Mutex
	path string
}

// NewPresetFile returns the preset file at path.
func NewPresetFile(path string) *PresetFile {
	return &PresetFile{path: path}
}

// Path returns the file path.
func (f *PresetFile) Path() string {
	return f.path
}

// Load reads the whole file.
func (f *PresetFile) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", f.path, ErrNoFile)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Save writes text, creating parent directories as needed.
func (f *PresetFile) Save(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(text), 0644)
}

// Clear removes the file.
func (f *PresetFile) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
