// Package memory is the in-process key-value store used for development
// and tests.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"pagotrack/internal/ports"
)

var _ ports.KVStore = (*Store)(nil)

// SeedKeys are the files NewFromFiles looks for, as <key>.json.
var SeedKeys = []string{"payments", "settings"}

type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	saves  int
}

func New(seed map[string][]byte) *Store {
	values := make(map[string][]byte, len(seed))
	for k, v := range seed {
		values[k] = slices.Clone(v)
	}
	return &Store{values: values}
}

// NewFromFiles seeds the store from <base>/<key>.json for each of
// SeedKeys. Missing files are skipped.
func NewFromFiles(base string) *Store {
	seed := make(map[string][]byte)
	for _, key := range SeedKeys {
		b, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil || len(b) == 0 {
			continue
		}
		seed[key] = b
	}
	return New(seed)
}

// Load returns a copy of the stored value.
func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *Store) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = slices.Clone(value)
	s.saves++
	return nil
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
