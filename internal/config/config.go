package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	defaults "fxconv-service/internal/infrastructure/config"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port    string
	AppMode string
	// Sources
	CBRURL       string
	NBKRURL      string
	NBKRProxyURL string
	CORSProxies  []string
	OpenERURL    string
	UserAgent    string
	// Acquisition
	StepTimeout     time.Duration
	AcquireTimeout  time.Duration
	OnTotalFailure  string
	FallbackKGS     float64
	FallbackRUB     float64
	ProxyRatePerSec float64
	ProxyBurst      int
	BreakerErrors   int
	BreakerTimeout  time.Duration
	UpstreamRetries int
	ShutdownTimeout time.Duration
	// Snapshot store
	SnapshotStore string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func floatDef(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func durMS(key string, def time.Duration) time.Duration {
	ms := atoiDef(os.Getenv(key), int(def/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads environment variables and applies defaults.
func Load() Config {
	port := getEnv("PORT", defaults.DefaultHTTPPort)
	return Config{
		Env:             getEnv("ENV", "local"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            port,
		AppMode:         getEnv("APP_MODE", "development"),
		CBRURL:          getEnv("CBR_URL", defaults.DefaultCBRURL),
		NBKRURL:         getEnv("NBKR_URL", defaults.DefaultNBKRURL),
		NBKRProxyURL:    getEnv("NBKR_PROXY_URL", "http://localhost:"+port+"/api/nbkr"),
		CORSProxies:     splitList(getEnv("CORS_PROXIES", strings.Join(defaults.DefaultCORSProxies, ","))),
		OpenERURL:       getEnv("OPEN_ER_URL", defaults.DefaultOpenERURL),
		UserAgent:       getEnv("USER_AGENT", defaults.DefaultUserAgent),
		StepTimeout:     durMS("STEP_TIMEOUT_MS", defaults.DefaultStepTimeout),
		AcquireTimeout:  durMS("ACQUIRE_TIMEOUT_MS", defaults.DefaultAcquireTimeout),
		OnTotalFailure:  getEnv("RATES_ON_TOTAL_FAILURE", "degraded"),
		FallbackKGS:     floatDef(os.Getenv("RATES_FALLBACK_KGS"), defaults.DefaultFallbackKGS),
		FallbackRUB:     floatDef(os.Getenv("RATES_FALLBACK_RUB"), defaults.DefaultFallbackRUB),
		ProxyRatePerSec: floatDef(os.Getenv("PROXY_RATE_PER_SEC"), defaults.DefaultProxyRatePerSec),
		ProxyBurst:      atoiDef(os.Getenv("PROXY_BURST"), defaults.DefaultProxyBurst),
		BreakerErrors:   atoiDef(os.Getenv("BREAKER_ERRORS"), defaults.DefaultBreakerErrors),
		BreakerTimeout:  durMS("BREAKER_TIMEOUT_MS", defaults.DefaultBreakerTimeout),
		UpstreamRetries: atoiDef(os.Getenv("PROXY_UPSTREAM_RETRIES"), defaults.DefaultUpstreamRetries),
		ShutdownTimeout: defaults.DefaultShutdownTimeout,
		SnapshotStore:   getEnv("SNAPSHOT_STORE", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         atoiDef(getEnv("REDIS_DB", "0"), 0),
		SnapshotTTL:     durMS("SNAPSHOT_TTL_MS", defaults.DefaultSnapshotTTL),
	}
}
