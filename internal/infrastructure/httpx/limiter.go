package httpx

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per destination host.
type HostLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}

func (h *HostLimiter) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[host] = l
	}
	return l
}
