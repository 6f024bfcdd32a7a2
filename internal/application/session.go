package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"fxconv-service/internal/conversion"
	"fxconv-service/internal/domain"

	"go.uber.org/zap"
)

// Session owns the current snapshot. Refreshes may overlap; the one requested
// last wins even if an older one completes after it.
type Session struct {
	acq   Acquirer
	store SnapshotStore
	log   *zap.Logger

	seq atomic.Uint64

	mu      sync.RWMutex
	current domain.RateSnapshot
	loaded  bool
	// stale marks a snapshot read back from the store. Any refresh replaces it.
	stale bool

	saveMu   sync.Mutex
	savedSeq uint64
}

type SessionOption func(*Session)

func WithSessionLogger(l *zap.Logger) SessionOption { return func(s *Session) { s.log = l } }

// NewSession wires an acquirer with an optional store. A nil store keeps the snapshot in memory only.
func NewSession(acq Acquirer, store SnapshotStore, opts ...SessionOption) *Session {
	s := &Session{acq: acq, store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Refresh runs one acquisition and returns the snapshot that is current afterwards.
func (s *Session) Refresh(ctx context.Context) domain.RateSnapshot {
	seq := s.seq.Add(1)
	snap := s.acq.Acquire(ctx)
	snap.Seq = seq

	s.mu.Lock()
	if s.loaded && !s.stale && s.current.Seq >= seq {
		cur := s.current
		s.mu.Unlock()
		s.log.Info("session.refresh_superseded",
			zap.Uint64("seq", seq),
			zap.Uint64("current_seq", cur.Seq),
		)
		return cur
	}
	s.current, s.loaded, s.stale = snap, true, false
	s.mu.Unlock()

	s.persist(ctx, snap)
	return snap
}

// persist writes snap unless a later snapshot has already been saved.
func (s *Session) persist(ctx context.Context, snap domain.RateSnapshot) {
	if s.store == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if snap.Seq <= s.savedSeq {
		return
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.log.Warn("session.store_save_failed", zap.Uint64("seq", snap.Seq), zap.Error(err))
		return
	}
	s.savedSeq = snap.Seq
}

// Current returns the published snapshot, reading through the store when the
// session has not acquired one yet. A stored snapshot never outranks a refresh
// of this process, including one already in flight.
func (s *Session) Current(ctx context.Context) (domain.RateSnapshot, error) {
	s.mu.RLock()
	cur, ok := s.current, s.loaded
	s.mu.RUnlock()
	if ok {
		return cur, nil
	}
	if s.store == nil {
		return domain.RateSnapshot{}, domain.ErrNoSnapshot
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSnapshot) {
			s.log.Warn("session.store_load_failed", zap.Error(err))
		}
		return domain.RateSnapshot{}, domain.ErrNoSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.current, nil
	}
	s.current, s.loaded, s.stale = snap, true, true
	// later refreshes number above the stored snapshot
	for {
		v := s.seq.Load()
		if snap.Seq <= v || s.seq.CompareAndSwap(v, snap.Seq) {
			break
		}
	}
	return snap, nil
}

// Convert derives the amount triple for an edit of one currency against the current snapshot.
func (s *Session) Convert(ctx context.Context, from domain.Currency, input string) (domain.AmountTriple, domain.RateSnapshot, error) {
	if !domain.SupportedCurrency[from] {
		return domain.AmountTriple{}, domain.RateSnapshot{}, domain.ErrUnknownCurrency
	}
	snap, err := s.Current(ctx)
	if err != nil {
		return domain.AmountTriple{}, domain.RateSnapshot{}, err
	}
	return conversion.Convert(from, input, snap), snap, nil
}
