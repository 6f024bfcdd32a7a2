package provider

import (
	"fmt"
	"strings"
	"time"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"
	"fxconv-service/internal/infrastructure/httpx"
)

// Mode selects the first KGS step.
type Mode string

const (
	// ModeDevelopment starts with the same-origin proxy served by this process.
	ModeDevelopment Mode = "development"
	// ModeProduction starts with the first public CORS relay.
	ModeProduction Mode = "production"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDevelopment, "dev":
		return ModeDevelopment, nil
	case ModeProduction, "prod":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("unknown app mode %q", s)
	}
}

type ChainConfig struct {
	Mode          Mode
	CBRURL        string
	NBKRURL       string
	SameOriginURL string
	// CORSProxies are relay templates in production order. Development
	// replaces the first one with SameOriginURL.
	CORSProxies []string
	OpenERURL   string
	Client      *httpx.Client

	// BreakerErrors of zero disables the circuit breaker.
	BreakerErrors  int
	BreakerTimeout time.Duration
}

func RUBChain(cfg ChainConfig) application.Chain {
	return application.Chain{
		Currency: domain.RUB,
		Sources:  []application.Source{cfg.guard(&CBRSource{URL: cfg.CBRURL, Client: cfg.Client})},
	}
}

// KGSChain builds the ordered fallback list: a first step chosen by mode, the remaining
// CORS relays, then the alternative JSON API.
func KGSChain(cfg ChainConfig) application.Chain {
	var sources []application.Source
	proxies := cfg.CORSProxies
	if cfg.Mode == ModeDevelopment {
		sources = append(sources, &NBKRSource{SourceName: "same-origin", URL: cfg.SameOriginURL, Client: cfg.Client})
		if len(proxies) > 0 {
			proxies = proxies[1:]
		}
	}
	for _, tpl := range proxies {
		sources = append(sources, cfg.guard(NewCORSProxySource(tpl, cfg.NBKRURL, cfg.Client)))
	}
	sources = append(sources, cfg.guard(&OpenERSource{URL: cfg.OpenERURL, Currency: domain.KGS, Client: cfg.Client}))
	return application.Chain{Currency: domain.KGS, Sources: sources}
}

func (cfg ChainConfig) guard(src application.Source) application.Source {
	if cfg.BreakerErrors <= 0 {
		return src
	}
	return Guard(src, cfg.BreakerErrors, cfg.BreakerTimeout)
}
