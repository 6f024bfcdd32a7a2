package provider

import (
	"context"
	"fmt"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"
	"fxconv-service/internal/infrastructure/httpx"
)

// CBRSource reads RUB per USD from the Central Bank of Russia daily JSON feed.
type CBRSource struct {
	URL    string
	Client *httpx.Client
}

var _ application.Source = (*CBRSource)(nil)

type cbrDaily struct {
	Date   string `json:"Date"`
	Valute map[string]struct {
		CharCode string   `json:"CharCode"`
		Nominal  int      `json:"Nominal"`
		Value    *float64 `json:"Value"`
	} `json:"Valute"`
}

func (s *CBRSource) Name() string { return "cbr" }

func (s *CBRSource) FetchRate(ctx context.Context) (float64, error) {
	if s.URL == "" {
		return 0, fmt.Errorf("cbr: %w: missing url", domain.ErrNetwork)
	}
	var body cbrDaily
	if err := clientOr(s.Client).GetJSON(ctx, s.URL, &body); err != nil {
		return 0, fmt.Errorf("cbr: %w", err)
	}
	usd, ok := body.Valute["USD"]
	if !ok || usd.Value == nil {
		return 0, fmt.Errorf("cbr: %w: missing Valute.USD.Value", domain.ErrParse)
	}
	v := *usd.Value
	if usd.Nominal > 1 {
		v /= float64(usd.Nominal)
	}
	return positive("cbr", v)
}
