package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RoGogDBD/huawei-ont-exporter/internal/agent"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/config"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/handler"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/ont"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/repository"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/service"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/version"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "huawei-ont-exporter: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger, err := config.Initialize(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	build := version.Get()
	logger.Info("Starting Huawei ONT exporter",
		zap.String("version", build.Version),
		zap.String("commit", build.Commit),
		zap.String("build_date", build.Date),
		zap.Stringer("config", cfg),
	)

	ln, err := net.Listen("tcp", cfg.Address.String())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Address, err)
	}

	store := repository.NewMetricsStore(build, logger.Named("store"))
	client := ont.NewClient(ont.Options{
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger.Named("ont"),
	})
	scheduler := agent.NewScheduler(client, store, agent.Options{
		Target: ont.Target{
			BaseURL:  cfg.TargetURL,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Interval: cfg.ScrapeInterval,
		Timeout:  cfg.ScrapeTimeout,
		Logger:   logger.Named("scheduler"),
	})

	srv := &http.Server{
		Handler:           service.NewRouter(handler.NewHandler(store, logger), logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	if cfg.ConfigFile != "" {
		g.Go(func() error {
			if err := config.Watch(gctx, cfg.ConfigFile, logger, config.ReloadLogLevel(cfg, logger)); err != nil {
				logger.Warn("Config hot reload disabled", zap.Error(err))
			}
			return nil
		})
	}

	err = g.Wait()
	logger.Info("Exporter stopped")
	return err
}
