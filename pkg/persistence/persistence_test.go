package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPresetFile(t *testing.T) {
	t.Run("SaveCreatesDirectories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "presets", "synth", "a.json")
		f := NewPresetFile(path)

		if err := f.Save(`{"synth":{}}`); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := f.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != `{"synth":{}}` {
			t.Errorf("Load() = %q", got)
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		f := NewPresetFile(filepath.Join(t.TempDir(), "missing.json"))
		_, err := f.Load()
		if !errors.Is(err, ErrNoFile) {
			t.Errorf("Load() error = %v, want ErrNoFile", err)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		f := NewPresetFile(filepath.Join(t.TempDir(), "a.json"))
		if err := f.Save("first, and longer"); err != nil {
			t.Fatal(err)
		}
		if err := f.Save("second"); err != nil {
			t.Fatal(err)
		}
		got, _ := f.Load()
		if got != "second" {
			t.Errorf("Load() = %q, want %q", got, "second")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		f := NewPresetFile(filepath.Join(t.TempDir(), "a.json"))
		if err := f.Clear(); err != nil {
			t.Errorf("Clear() on missing file error = %v", err)
		}
		if err := f.Save("x"); err != nil {
			t.Fatal(err)
		}
		if err := f.Clear(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
			t.Errorf("file still exists after Clear()")
		}
	})
}

func TestSessionStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "state", "session.json"))
		state := &SessionState{
			Devices: []DeviceSession{{
				Name: "synth",
				Exposures: []Exposure{
					{Protocol: "oscquery", OSCPort: 1234, WSPort: 5678},
					{Protocol: "osc", Host: "10.0.0.2", RemotePort: 9000, LocalPort: 9001},
				},
				Preset: "/tmp/synth.json",
			}},
		}
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if state.SavedAt.IsZero() {
			t.Error("Save() did not stamp SavedAt")
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != SessionVersion {
			t.Errorf("Version = %d, want %d", got.Version, SessionVersion)
		}
		if len(got.Devices) != 1 || len(got.Devices[0].Exposures) != 2 {
			t.Fatalf("Devices = %+v", got.Devices)
		}
		if e := got.Devices[0].Exposures[1]; e.Host != "10.0.0.2" || e.RemotePort != 9000 {
			t.Errorf("Exposure = %+v", e)
		}
		if got.Devices[0].Preset != "/tmp/synth.json" {
			t.Errorf("Preset = %q", got.Devices[0].Preset)
		}
	})

	t.Run("KeepsSavedAt", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
		at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		if err := store.Save(&SessionState{SavedAt: at}); err != nil {
			t.Fatal(err)
		}
		got, _ := store.Load()
		if !got.SavedAt.Equal(at) {
			t.Errorf("SavedAt = %v, want %v", got.SavedAt, at)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
		if err := store.Save(&SessionState{}); err != nil {
			t.Fatal(err)
		}
		if err := store.Clear(); err != nil {
			t.Fatal(err)
		}
		got, _ := store.Load()
		if got != nil {
			t.Errorf("Load() after Clear() = %v, want nil", got)
		}
	})
}
