package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fxconv-service/internal/domain"
)

type fakeSource struct {
	name  string
	rate  float64
	err   error
	block bool
	panic bool
	calls atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchRate(ctx context.Context) (float64, error) {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	if f.block {
		// ignores ctx on purpose, the acquirer must abandon it
		time.Sleep(2 * time.Second)
	}
	if f.err != nil {
		return 0, fmt.Errorf("%s: %w", f.name, f.err)
	}
	return f.rate, nil
}

func ok(name string, rate float64) *fakeSource { return &fakeSource{name: name, rate: rate} }

func failing(name string, err error) *fakeSource { return &fakeSource{name: name, err: err} }

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type attempt struct {
	currency domain.Currency
	source   string
	kind     string
}

type recordingObserver struct {
	mu        sync.Mutex
	attempts  []attempt
	snapshots []domain.RateSnapshot
}

func (o *recordingObserver) ObserveAttempt(c domain.Currency, source string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, attempt{currency: c, source: source, kind: domain.FailureKind(err)})
}

func (o *recordingObserver) ObserveSnapshot(s domain.RateSnapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, s)
}

var errStore = errors.New("store down")

type fakeStore struct {
	mu      sync.Mutex
	snap    *domain.RateSnapshot
	saveErr error
	loadErr error
	saves   int
	// saveGate, when set, holds Save until closed
	saveGate    chan struct{}
	saveStarted chan struct{}
}

func (f *fakeStore) Load(context.Context) (domain.RateSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return domain.RateSnapshot{}, f.loadErr
	}
	if f.snap == nil {
		return domain.RateSnapshot{}, domain.ErrNoSnapshot
	}
	return *f.snap, nil
}

func (f *fakeStore) Save(_ context.Context, s domain.RateSnapshot) error {
	if f.saveGate != nil {
		f.saveStarted <- struct{}{}
		<-f.saveGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snap = &s
	return nil
}

// gatedAcquirer returns snaps[i] for the i-th call once release[i] is closed.
type gatedAcquirer struct {
	mu      sync.Mutex
	n       int
	snaps   []domain.RateSnapshot
	release []chan struct{}
	started chan int
}

func newGatedAcquirer(snaps ...domain.RateSnapshot) *gatedAcquirer {
	g := &gatedAcquirer{snaps: snaps, started: make(chan int, len(snaps))}
	for range snaps {
		g.release = append(g.release, make(chan struct{}))
	}
	return g
}

func (g *gatedAcquirer) Acquire(context.Context) domain.RateSnapshot {
	g.mu.Lock()
	i := g.n
	g.n++
	g.mu.Unlock()
	g.started <- i
	<-g.release[i]
	return g.snaps[i]
}

type staticAcquirer struct{ snap domain.RateSnapshot }

func (s staticAcquirer) Acquire(context.Context) domain.RateSnapshot { return s.snap }
