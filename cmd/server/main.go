package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"journalledger/internal/cache"
	"journalledger/internal/config"
	"journalledger/internal/crypto"
	"journalledger/internal/engagement"
	"journalledger/internal/handlers"
	mw "journalledger/internal/middleware"
	"journalledger/internal/store/sqlstore"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid time zone", zap.Error(err))
	}

	var storeOpts []sqlstore.Option
	if cfg.EncryptionKey != "" {
		sealer, err := crypto.NewSealerFromBase64(cfg.EncryptionKey)
		if err != nil {
			logger.Fatal("invalid ENCRYPTION_KEY", zap.Error(err))
		}
		storeOpts = append(storeOpts, sqlstore.WithSealer(sealer))
	} else {
		logger.Warn("ENCRYPTION_KEY not set; journal content is stored unencrypted")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := sqlstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBMaxOpenConns, storeOpts...)
	cancel()
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}
	defer store.Close()

	svcOpts := []engagement.Option{
		engagement.WithLocation(loc),
		engagement.WithLogger(logger.Named("ledger")),
		engagement.WithMetrics(engagement.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr)
		defer rdb.Close()
		svcOpts = append(svcOpts, engagement.WithStatsCache(cache.NewRedisStats(rdb, cfg.StatsCacheTTL)))
		logger.Info("stats cache enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Duration("ttl", cfg.StatsCacheTTL))
	}
	svc := engagement.NewService(store, svcOpts...)

	router := handlers.NewRouter(handlers.RouterConfig{
		Service:   svc,
		Users:     store,
		JWTSecret: []byte(cfg.JWTSecret),
		Logger:    logger,
		Limiter:   mw.NewWriteLimiter(cfg.WriteRatePerMin, cfg.WriteBurst),
		Metrics:   handlers.MetricsHandler(),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
