// Package store persists the subscription list as a single JSON document
// and keeps a fetch log in SQLite.
//
// The subscription file is read fully and rewritten fully on every mutation.
// There is no cross-process locking: concurrent writers race and the last
// write wins, which is acceptable at this service's request volume.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Subscription is one tracked topic.
type Subscription struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
	Slug  string    `json:"slug,omitempty"`
	Added time.Time `json:"added"`
}

// Store is a whole-file JSON subscription store.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a Store backed by the JSON file at path. The file is created
// on the first mutation; a missing file reads as an empty list.
func New(path string) *Store {
	return &Store{path: path}
}

// List returns all subscriptions in file order.
func (s *Store) List() ([]Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Get returns the subscription with the given ID, if present.
func (s *Store) Get(id string) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].ID == id {
			return &subs[i], nil
		}
	}
	return nil, nil
}

// Add appends a subscription unless one with the same ID already exists.
// It reports whether the list changed.
func (s *Store) Add(sub Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	for _, existing := range subs {
		if existing.ID == sub.ID {
			return false, nil
		}
	}
	subs = append(subs, sub)
	if err := s.saveLocked(subs); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the subscription with the given ID. Removing an unknown ID
// is a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.loadLocked()
	if err != nil {
		return err
	}
	kept := subs[:0]
	for _, sub := range subs {
		if sub.ID != id {
			kept = append(kept, sub)
		}
	}
	return s.saveLocked(kept)
}

func (s *Store) loadLocked() ([]Subscription, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	var subs []Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	return subs, nil
}

func (s *Store) saveLocked(subs []Subscription) error {
	if subs == nil {
		subs = []Subscription{}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: mkdir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}
