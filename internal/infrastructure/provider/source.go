package provider

import (
	"fmt"
	"math"

	"fxconv-service/internal/domain"
	defaults "fxconv-service/internal/infrastructure/config"
	"fxconv-service/internal/infrastructure/httpx"
)

const (
	DefaultCBRURL    = defaults.DefaultCBRURL
	DefaultNBKRURL   = defaults.DefaultNBKRURL
	DefaultOpenERURL = defaults.DefaultOpenERURL
)

// DefaultCORSProxies are the public relays in fallback order.
var DefaultCORSProxies = defaults.DefaultCORSProxies

func clientOr(c *httpx.Client) *httpx.Client {
	if c == nil {
		return &httpx.Client{}
	}
	return c
}

func positive(name string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %w: rate %v", name, domain.ErrParse, v)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s: %w: rate %v", name, domain.ErrZeroRate, v)
	}
	return v, nil
}
