package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"loanscore/cache"
	"loanscore/config"
	qhttp "loanscore/http"
	"loanscore/ml"
)

var (
	portFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen (overrides http.port)",
	}

	serveCmd = &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the HTTP prediction service",
		Action:  cmdServe,
		Flags: []cli.Flag{
			portFlag,
			modelFlag,
			modelTypeFlag,
		},
	}
)

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	predictionCache, closeCache := newPredictionCache(ctx, cfg.Cache, logger)
	defer closeCache()

	var opts []ml.PredictorOption
	if predictionCache != nil {
		opts = append(opts, ml.WithCache(predictionCache))
	}
	service, err := newService(cfg, logger, opts...)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return err
	}

	if cfg.Model.Watch {
		go func() {
			if err := ml.WatchArtifact(ctx, cfg.Model.Path, logger); err != nil {
				logger.Warn("artifact watcher stopped", zap.Error(err))
			}
		}()
	}

	// 1. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, service, service.Metrics(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 2. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		return err
	}

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("exiting")
	return nil
}

// newPredictionCache returns nil when caching is disabled. The returned
// func releases the backend.
func newPredictionCache(ctx context.Context, cfg config.Cache, logger *zap.Logger) (ml.PredictionCache, func()) {
	switch cfg.Backend {
	case config.CacheLRU:
		logger.Info("prediction cache enabled", zap.String("backend", cfg.Backend), zap.Int("size", cfg.Size))
		return cache.NewLRU(cfg.Size, cfg.TTL), func() {}
	case config.CacheRedis:
		r := cache.NewRedis(cfg.RedisAddr, cfg.TTL)
		if err := r.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, predictions will be computed uncached until it recovers",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			logger.Info("prediction cache enabled", zap.String("backend", cfg.Backend), zap.String("addr", cfg.RedisAddr))
		}
		return r, func() {
			if err := r.Close(); err != nil {
				logger.Warn("closing redis client", zap.Error(err))
			}
		}
	default:
		return nil, func() {}
	}
}
