package application

import (
	"context"
	"time"

	"fxconv-service/internal/domain"
)

// Source fetches one USD-relative rate. Failures wrap a domain taxonomy error.
type Source interface {
	Name() string
	FetchRate(ctx context.Context) (float64, error)
}

// SnapshotStore keeps the current snapshot outside the session.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.RateSnapshot, error)
	Save(ctx context.Context, s domain.RateSnapshot) error
}

// Observer receives acquisition events for metrics.
type Observer interface {
	ObserveAttempt(c domain.Currency, source string, err error, took time.Duration)
	ObserveSnapshot(s domain.RateSnapshot)
}

type Acquirer interface {
	Acquire(ctx context.Context) domain.RateSnapshot
}

type NoopObserver struct{}

func (NoopObserver) ObserveAttempt(domain.Currency, string, error, time.Duration) {}
func (NoopObserver) ObserveSnapshot(domain.RateSnapshot) {}
