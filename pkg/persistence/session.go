package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionVersion is the current version of the session file format.
const SessionVersion = 1

// SessionState is what the CLI restores on start.
type SessionState struct {
	// Version is the session file format version.
	Version int `json:"version"`

	// SavedAt is when the session was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Devices lists the devices that were alive.
	Devices []DeviceSession `json:"devices,omitempty"`
}

// DeviceSession describes one device of a session.
type DeviceSession struct {
	// Name is the device name.
	Name string `json:"name"`

	// Exposures are the transports the device was exposed through, in
	// exposure order.
	Exposures []Exposure `json:"exposures,omitempty"`

	// Preset is the path of a preset file applied after the exposures.
	Preset string `json:"preset,omitempty"`
}

// Exposure describes one transport of a device.
type Exposure struct {
	// Protocol is one of "oscquery", "mirror", "minuit" or "osc".
	Protocol string `json:"protocol"`

	// Host is the remote address (mirror, minuit, osc).
	Host string `json:"host,omitempty"`

	// RemotePort and LocalPort are used by minuit and osc.
	RemotePort int `json:"remote_port,omitempty"`
	LocalPort  int `json:"local_port,omitempty"`

	// OSCPort and WSPort are used by oscquery.
	OSCPort int `json:"osc_port,omitempty"`
	WSPort  int `json:"ws_port,omitempty"`
}

// SessionStore manages persistence of the session to a JSON file.
type SessionStore struct {
	mu   sync.Mutex
	path string
}

// NewSessionStore creates a new session store.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Save persists the session to disk.
func (s *SessionStore) Save(state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	state.Version = SessionVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Load reads the session from disk.
// Returns nil, nil if the file doesn't exist.
func (s *SessionStore) Load() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &SessionState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Clear removes the session file.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
