package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultCBRURL    = "https://www.cbr-xml-daily.ru/daily_json.js"
	DefaultNBKRURL   = "https://www.nbkr.kg/XML/daily.xml"
	DefaultOpenERURL = "https://open.er-api.com/v6/latest/USD"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	DefaultStepTimeout    = 8 * time.Second
	DefaultAcquireTimeout = 45 * time.Second
	DefaultFallbackKGS    = 89.5
	DefaultFallbackRUB    = 95.0

	DefaultProxyRatePerSec = 1.0
	DefaultProxyBurst      = 2
	DefaultBreakerErrors   = 3
	DefaultBreakerTimeout  = 60 * time.Second
	DefaultUpstreamRetries = 2

	DefaultSnapshotTTL = 24 * time.Hour
)

// DefaultCORSProxies are the public relays in production order.
var DefaultCORSProxies = []string{
	"https://api.allorigins.win/raw?url={url}",
	"https://corsproxy.io/?url={url}",
	"https://api.codetabs.com/v1/proxy?quest={url}",
}
