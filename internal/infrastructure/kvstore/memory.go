// Package kvstore provides the ordered key-value stores the revocation ledger persists into.
//
// Supported backends:
//   - memory (in-process, for development/testing)
//   - redis (shared across instances)
//   - sql via gorm (sqlite or postgres)
package kvstore

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/turtacn/tokenlife/internal/domain/repository"
)

// MemoryStore implements repository.KVStore with a map guarded by a RWMutex.
// Scan snapshots and sorts the matching keys, so callbacks may mutate the store freely.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ repository.KVStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[string(key)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (s *MemoryStore) Put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = bytes.Clone(value)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

func (s *MemoryStore) Scan(ctx context.Context, prefix []byte, fn repository.ScanFunc) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.RLock()
		v, ok := s.data[k]
		s.mu.RUnlock()
		if !ok {
			// deleted since the snapshot
			continue
		}
		if err := fn([]byte(k), bytes.Clone(v)); err != nil {
			if err == repository.ErrStopScan {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close drops all data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
