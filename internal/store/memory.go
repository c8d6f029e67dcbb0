package store

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// MemorySeenStore keeps the seen set in process memory
type MemorySeenStore struct {
	catalogue []string
	seen      map[string]bool
	rng       *rand.Rand
	mu        sync.Mutex
}

// NewMemorySeenStore creates a store over catalogue
func NewMemorySeenStore(catalogue []string) *MemorySeenStore {
	return &MemorySeenStore{
		catalogue: append([]string(nil), catalogue...),
		seen:      make(map[string]bool),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// UnseenCandidates returns up to n shuffled unseen paths
func (s *MemorySeenStore) UnseenCandidates(_ context.Context, n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	picked, reset := selectUnseen(s.catalogue, s.seen, n, s.rng)
	if reset {
		s.seen = make(map[string]bool)
	}
	return picked, nil
}

// MarkSeen records paths as used
func (s *MemorySeenStore) MarkSeen(_ context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		s.seen[p] = true
	}
	return nil
}

// Seen checks if a path has been used
func (s *MemorySeenStore) Seen(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[path]
}

// Close is a no-op
func (s *MemorySeenStore) Close() error {
	return nil
}
