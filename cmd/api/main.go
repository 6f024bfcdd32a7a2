package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fxconv-service/internal/bootstrap"
	"fxconv-service/internal/config"
	"fxconv-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()
	addr := ":" + cfg.Port

	api, cleanup, err := bootstrap.BuildAPI(cfg, nil)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := &http.Server{
		Addr:    addr,
		Handler: api.Handler,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("mode", cfg.AppMode))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// Initial acquisition; the development chain calls back into /api/nbkr, so the listener must be up.
	go func() {
		snap := api.Session.Refresh(ctx)
		logger.Info("initial rates loaded",
			zap.String("status", string(snap.Status)),
			zap.Uint64("seq", snap.Seq),
		)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
