package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CacheFileName is the name of the notification cache in the home directory.
const CacheFileName = ".versioneye.slack.cache"

// Store persists the last notified version per package key.
type Store interface {
	// Load returns the recorded mapping. Implementations return an empty
	// mapping, not an error, when nothing usable has been stored.
	Load() (map[string]string, error)
	// Save replaces the recorded mapping with the given one.
	Save(map[string]string) error
}

// DefaultCachePath returns $HOME/.versioneye.slack.cache.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, CacheFileName), nil
}

// FileStore keeps the mapping as a single JSON object in a file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by path. The file does not need to exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the cache file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cache file. Missing, empty, unreadable or corrupted files
// all read as an empty mapping.
func (s *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}, nil
	}

	var cached map[string]string
	if err := json.Unmarshal(data, &cached); err != nil || cached == nil {
		return map[string]string{}, nil
	}
	return cached, nil
}

// Save writes the full mapping, replacing any previous content. The write goes
// through a temp file and rename so a crash never leaves a partial object.
func (s *FileStore) Save(cached map[string]string) error {
	if cached == nil {
		cached = map[string]string{}
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// MemoryStore is a Store held in memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
	saves   int
}

// NewMemoryStore returns a MemoryStore seeded with a copy of initial.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	return &MemoryStore{entries: copyMap(initial)}
}

// Load returns a copy of the stored mapping.
func (m *MemoryStore) Load() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMap(m.entries), nil
}

// Save replaces the stored mapping with a copy of cached.
func (m *MemoryStore) Save(cached map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = copyMap(cached)
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func copyMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
