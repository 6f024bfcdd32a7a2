package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"fxconv-service/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultStepTimeout = 8 * time.Second
	DefaultBudget      = 45 * time.Second
)

// RateAcquirer runs the RUB chain and then the KGS chain, one source at a time.
type RateAcquirer struct {
	rub         Chain
	kgs         Chain
	stepTimeout time.Duration
	budget      time.Duration
	policy      FailurePolicy
	observer    Observer
	log         *zap.Logger
	clock       Clock
}

type AcquirerOption func(*RateAcquirer)

func WithStepTimeout(d time.Duration) AcquirerOption {
	return func(a *RateAcquirer) { a.stepTimeout = d }
}

func WithBudget(d time.Duration) AcquirerOption { return func(a *RateAcquirer) { a.budget = d } }
func WithPolicy(p FailurePolicy) AcquirerOption { return func(a *RateAcquirer) { a.policy = p } }
func WithObserver(o Observer) AcquirerOption { return func(a *RateAcquirer) { a.observer = o } }
func WithLogger(l *zap.Logger) AcquirerOption { return func(a *RateAcquirer) { a.log = l } }
func WithClock(c Clock) AcquirerOption { return func(a *RateAcquirer) { a.clock = c } }

func NewRateAcquirer(rub, kgs Chain, opts ...AcquirerOption) *RateAcquirer {
	a := &RateAcquirer{
		rub:         rub,
		kgs:         kgs,
		stepTimeout: DefaultStepTimeout,
		budget:      DefaultBudget,
		policy:      DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.observer == nil {
		a.observer = NoopObserver{}
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.clock == nil {
		a.clock = realClock{}
	}
	return a
}

// Acquire never fails. Whatever could not be fetched is encoded in the snapshot.
func (a *RateAcquirer) Acquire(ctx context.Context) domain.RateSnapshot {
	if a.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.budget)
		defer cancel()
	}

	snap := domain.RateSnapshot{}
	failures := map[domain.Currency]string{}

	rub, rubSrc, rubErr := a.runChain(ctx, a.rub)
	if rubErr != nil {
		failures[domain.RUB] = rubErr.Error()
		if v, ok := a.policy.fallback(a.policy.RUB); ok {
			rub, rubSrc = v, domain.SourceFallbackConstant
		}
	}
	kgs, kgsSrc, kgsErr := a.runChain(ctx, a.kgs)
	if kgsErr != nil {
		failures[domain.KGS] = kgsErr.Error()
		if v, ok := a.policy.fallback(a.policy.KGS); ok {
			kgs, kgsSrc = v, domain.SourceFallbackConstant
		}
	}

	snap.USDToRUB, snap.RUBSource = rub, rubSrc
	snap.USDToKGS, snap.KGSSource = kgs, kgsSrc
	snap.Status = domain.StatusFor(rub, kgs)
	if len(failures) > 0 {
		snap.Failures = failures
	}
	snap.FetchedAt = a.clock.Now()

	a.observer.ObserveSnapshot(snap)
	fields := []zap.Field{
		zap.String("status", string(snap.Status)),
		zap.Float64("usd_to_rub", snap.USDToRUB),
		zap.Float64("usd_to_kgs", snap.USDToKGS),
		zap.String("rub_source", snap.RUBSource),
		zap.String("kgs_source", snap.KGSSource),
	}
	if snap.Valid() && !snap.UsedFallback() {
		a.log.Info("acquire.snapshot", fields...)
	} else {
		a.log.Warn("acquire.snapshot", append(fields, zap.Any("failures", failures))...)
	}
	return snap
}

// runChain returns the first positive rate and the name of the source that served it,
// or the last failure when every source failed.
func (a *RateAcquirer) runChain(ctx context.Context, ch Chain) (float64, string, error) {
	var lastErr error
	for _, src := range ch.Sources {
		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("%w: acquisition budget: %v", domain.ErrNetwork, err)
			break
		}
		start := a.clock.Now()
		v, err := a.fetchStep(ctx, src)
		took := a.clock.Now().Sub(start)
		a.observer.ObserveAttempt(ch.Currency, src.Name(), err, took)
		if err == nil {
			a.log.Debug("acquire.step_ok",
				zap.String("currency", string(ch.Currency)),
				zap.String("source", src.Name()),
				zap.Float64("rate", v),
				zap.Duration("took", took),
			)
			return v, src.Name(), nil
		}
		a.log.Warn("acquire.step_failed",
			zap.String("currency", string(ch.Currency)),
			zap.String("source", src.Name()),
			zap.String("kind", domain.FailureKind(err)),
			zap.Duration("took", took),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no sources configured for %s", domain.ErrNetwork, ch.Currency)
	}
	return 0, "", lastErr
}

type stepResult struct {
	v   float64
	err error
}

// fetchStep bounds one source by the step timeout. A source that ignores its
// context is abandoned when the deadline passes.
func (a *RateAcquirer) fetchStep(parent context.Context, src Source) (float64, error) {
	ctx := parent
	if a.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, a.stepTimeout)
		defer cancel()
	}

	done := make(chan stepResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stepResult{err: fmt.Errorf("%s: %w: panic: %v", src.Name(), domain.ErrNetwork, r)}
			}
		}()
		v, err := src.FetchRate(ctx)
		done <- stepResult{v: v, err: err}
	}()

	r, err := awaitStep(ctx, done)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", src.Name(), domain.ErrNetwork, err)
	}
	if r.err != nil {
		return 0, r.err
	}
	return validateRate(src.Name(), r.v)
}

// awaitStep waits for the step result. A result that is ready when the
// deadline fires is still taken.
func awaitStep(ctx context.Context, done <-chan stepResult) (stepResult, error) {
	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		select {
		case r := <-done:
			return r, nil
		default:
			return stepResult{}, ctx.Err()
		}
	}
}

func validateRate(name string, v float64) (float64, error) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, fmt.Errorf("%s: %w: rate %v", name, domain.ErrParse, v)
	case v <= 0:
		return 0, fmt.Errorf("%s: %w: rate %v", name, domain.ErrZeroRate, v)
	}
	return v, nil
}
