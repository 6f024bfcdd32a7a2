// Package memstore keeps the current snapshot in process memory.
package memstore

import (
	"context"
	"sync"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"
)

type Store struct {
	mu   sync.RWMutex
	snap domain.RateSnapshot
	ok   bool
}

var _ application.SnapshotStore = (*Store)(nil)

func New() *Store { return &Store{} }

func (s *Store) Load(context.Context) (domain.RateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return domain.RateSnapshot{}, domain.ErrNoSnapshot
	}
	return s.snap, nil
}

func (s *Store) Save(_ context.Context, snap domain.RateSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap, s.ok = snap, true
	return nil
}
