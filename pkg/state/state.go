package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Launch records a backend launch so a later run can detect a backend
// orphaned by a crash of the launcher.
type Launch struct {
	SessionID  string    `json:"session_id"`
	PID        int       `json:"pid"`
	Executable string    `json:"executable"`
	LaunchedAt time.Time `json:"launched_at"`
}

// Store persists the launch record to disk
type Store struct {
	path  string
	mutex sync.RWMutex
}

// NewStore creates a store backed by the given file path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the launch state location under the user home
// directory
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "opstem-scheduler", "launch.json"), nil
}

// Save writes the launch record to disk, creating the parent directory
// if needed
func (s *Store) Save(launch *Launch) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := json.Marshal(launch)
	if err != nil {
		return fmt.Errorf("failed to marshal launch state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Load reads the launch record from disk. A missing file is not an
// error; it returns nil.
func (s *Store) Load() (*Launch, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read launch state: %w", err)
	}

	var launch Launch
	if err := json.Unmarshal(data, &launch); err != nil {
		return nil, fmt.Errorf("failed to parse launch state: %w", err)
	}
	return &launch, nil
}

// Clear removes the launch record; clearing an absent record is fine
func (s *Store) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove launch state: %w", err)
	}
	return nil
}
