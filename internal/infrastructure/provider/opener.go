package provider

import (
	"context"
	"fmt"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"
	"fxconv-service/internal/infrastructure/httpx"
)

// OpenERSource reads a USD-relative rate from the open exchange-rate API.
type OpenERSource struct {
	URL      string
	Currency domain.Currency
	Client   *httpx.Client
}

var _ application.Source = (*OpenERSource)(nil)

type openERLatest struct {
	Result    string              `json:"result"`
	ErrorType string              `json:"error-type"`
	BaseCode  string              `json:"base_code"`
	Rates     map[string]*float64 `json:"rates"`
}

func (s *OpenERSource) Name() string { return "open-er-api" }

func (s *OpenERSource) FetchRate(ctx context.Context) (float64, error) {
	if s.URL == "" {
		return 0, fmt.Errorf("open-er-api: %w: missing url", domain.ErrNetwork)
	}
	cur := s.Currency
	if cur == "" {
		cur = domain.KGS
	}
	var body openERLatest
	if err := clientOr(s.Client).GetJSON(ctx, s.URL, &body); err != nil {
		return 0, fmt.Errorf("open-er-api: %w", err)
	}
	if body.Result != "" && body.Result != "success" {
		return 0, fmt.Errorf("open-er-api: %w: result %s %s", domain.ErrParse, body.Result, body.ErrorType)
	}
	if body.BaseCode != "" && body.BaseCode != string(domain.USD) {
		return 0, fmt.Errorf("open-er-api: %w: base %s", domain.ErrParse, body.BaseCode)
	}
	v, ok := body.Rates[string(cur)]
	if !ok || v == nil {
		return 0, fmt.Errorf("open-er-api: %w: missing rates.%s", domain.ErrParse, cur)
	}
	return positive("open-er-api", *v)
}
