package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"fxconv-service/internal/application"
	"fxconv-service/internal/config"
	httpserver "fxconv-service/internal/infrastructure/http"
	"fxconv-service/internal/infrastructure/httpx"
	"fxconv-service/internal/infrastructure/logx"
	"fxconv-service/internal/infrastructure/memstore"
	"fxconv-service/internal/infrastructure/metrics"
	"fxconv-service/internal/infrastructure/provider"
	redisstore "fxconv-service/internal/infrastructure/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// API is the wired HTTP service.
type API struct {
	Session *application.Session
	Server  *httpserver.Server
	Handler http.Handler
}

// BuildSnapshotStore builds the store selected by SNAPSHOT_STORE. The ping is nil for memory.
func BuildSnapshotStore(cfg config.Config) (application.SnapshotStore, func(ctx context.Context) error, func(), error) {
	switch cfg.SnapshotStore {
	case "", "memory":
		return memstore.New(), nil, func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		store := redisstore.New(rdb, cfg.SnapshotTTL)
		ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		cleanup := func() { _ = rdb.Close() }
		return store, ping, cleanup, nil
	default:
		return nil, nil, func() {}, fmt.Errorf("unknown SNAPSHOT_STORE %q", cfg.SnapshotStore)
	}
}

// BuildSourceClient is the client for fallback steps. It never retries and keeps one
// token bucket per relay host. The step timeout bounds each call.
func BuildSourceClient(cfg config.Config) *httpx.Client {
	c := &httpx.Client{HTTP: &http.Client{}, UserAgent: cfg.UserAgent}
	if cfg.ProxyRatePerSec > 0 {
		c.Limiter = httpx.NewHostLimiter(cfg.ProxyRatePerSec, cfg.ProxyBurst)
	}
	return c
}

func BuildChains(cfg config.Config, client *httpx.Client) (application.Chain, application.Chain, error) {
	mode, err := provider.ParseMode(cfg.AppMode)
	if err != nil {
		return application.Chain{}, application.Chain{}, err
	}
	cc := provider.ChainConfig{
		Mode:           mode,
		CBRURL:         cfg.CBRURL,
		NBKRURL:        cfg.NBKRURL,
		SameOriginURL:  cfg.NBKRProxyURL,
		CORSProxies:    cfg.CORSProxies,
		OpenERURL:      cfg.OpenERURL,
		Client:         client,
		BreakerErrors:  cfg.BreakerErrors,
		BreakerTimeout: cfg.BreakerTimeout,
	}
	return provider.RUBChain(cc), provider.KGSChain(cc), nil
}

func BuildPolicy(cfg config.Config) (application.FailurePolicy, error) {
	mode, err := application.ParseFailureMode(cfg.OnTotalFailure)
	if err != nil {
		return application.FailurePolicy{}, err
	}
	return application.FailurePolicy{Mode: mode, KGS: cfg.FallbackKGS, RUB: cfg.FallbackRUB}, nil
}

func BuildAcquirer(cfg config.Config, obs application.Observer, log *zap.Logger) (*application.RateAcquirer, error) {
	rub, kgs, err := BuildChains(cfg, BuildSourceClient(cfg))
	if err != nil {
		return nil, err
	}
	policy, err := BuildPolicy(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("acquirer configured",
		zap.String("mode", cfg.AppMode),
		zap.Stringer("rub_chain", rub),
		zap.Stringer("kgs_chain", kgs),
		zap.String("on_total_failure", string(policy.Mode)),
	)
	return application.NewRateAcquirer(rub, kgs,
		application.WithStepTimeout(cfg.StepTimeout),
		application.WithBudget(cfg.AcquireTimeout),
		application.WithPolicy(policy),
		application.WithObserver(obs),
		application.WithLogger(log),
	), nil
}

// BuildNBKRProxy serves the upstream XML at /api/nbkr with a browser user agent and bounded retries.
func BuildNBKRProxy(cfg config.Config, log *zap.Logger) *httpserver.NBKRProxy {
	retries := cfg.UpstreamRetries
	if retries < 0 {
		retries = 0
	}
	return &httpserver.NBKRProxy{
		Upstream: cfg.NBKRURL,
		Client: &httpx.Client{
			HTTP:       &http.Client{Timeout: cfg.StepTimeout},
			UserAgent:  cfg.UserAgent,
			MaxRetries: uint64(retries),
		},
		Log: log,
	}
}

// BuildAPI wires session, stores, metrics and HTTP routes.
func BuildAPI(cfg config.Config, reg *prometheus.Registry) (*API, func(), error) {
	log := logx.L()
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	store, ping, cleanup, err := BuildSnapshotStore(cfg)
	if err != nil {
		return nil, func() {}, err
	}
	acq, err := BuildAcquirer(cfg, metrics.NewAcquisitionMetrics(reg), logx.Component("acquirer"))
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	sess := application.NewSession(acq, store, application.WithSessionLogger(logx.Component("session")))

	srv := httpserver.NewServer(sess,
		httpserver.WithLogger(log),
		httpserver.WithNBKRProxy(BuildNBKRProxy(cfg, logx.Component("nbkr_proxy"))),
		httpserver.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	if ping != nil {
		srv.SetReadyCheck(ping)
	}
	return &API{Session: sess, Server: srv, Handler: httpserver.NewRouter(srv)}, cleanup, nil
}
