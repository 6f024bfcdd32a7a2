package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"

	"github.com/eapache/go-resiliency/breaker"
)

// Guarded skips a source for timeout after errThreshold consecutive failures.
type Guarded struct {
	src application.Source
	b   *breaker.Breaker
}

var _ application.Source = (*Guarded)(nil)

func Guard(src application.Source, errThreshold int, timeout time.Duration) *Guarded {
	return &Guarded{src: src, b: breaker.New(errThreshold, 1, timeout)}
}

func (g *Guarded) Name() string { return g.src.Name() }

func (g *Guarded) FetchRate(ctx context.Context) (float64, error) {
	var v float64
	err := g.b.Run(func() error {
		var err error
		v, err = g.src.FetchRate(ctx)
		return err
	})
	if errors.Is(err, breaker.ErrBreakerOpen) {
		return 0, fmt.Errorf("%s: %w: circuit open", g.src.Name(), domain.ErrNetwork)
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}
