// SPDX-License-Identifier: AGPL-3.0-only
package commentcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore holds states in process, evicting the least recently used
// session once size is reached.
type MemoryStore struct {
	cache *lru.Cache[string, *State]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	cache, err := lru.New[string, *State](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (m *MemoryStore) Load(_ context.Context, sid string) (*State, error) {
	s, ok := m.cache.Get(sid)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, sid string, s *State) error {
	m.cache.Add(sid, s.Clone())
	return nil
}

func (m *MemoryStore) Drop(_ context.Context, sid string) error {
	m.cache.Remove(sid)
	return nil
}

func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
