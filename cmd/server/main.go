package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"EventStudy/internal/cache"
	"EventStudy/internal/collector"
	"EventStudy/internal/config"
	"EventStudy/internal/logging"
	"EventStudy/internal/model"
	"EventStudy/internal/observability"
	"EventStudy/internal/recorder"
	"EventStudy/internal/scheduler"
	"EventStudy/internal/server"
	"EventStudy/internal/study"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log.Info().Str("config", cfgPath).Msg("EventStudy starting...")

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	// Init fetcher
	fetcher, err := newFetcher(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init data source")
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	seriesCache := cache.NewSeriesCache(cfg.Cache.TTL)
	col := collector.NewCollector(fetcher, seriesCache, metrics, cfg.DataSource.PaddingDays)
	col.FetchTimeout = cfg.DataSource.Timeout

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, seriesCache, rec, metrics, cfg.Database.RetentionDays)
	if err := sched.RegisterAll(cfg.Schedule.PurgeCron, cfg.Schedule.PruneCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(study.NewService(col, rec, metrics), metrics)
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	cancel()
	log.Info().Msg("EventStudy stopped")
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "yahoo":
		f := collector.NewYahooFetcher(cfg.Proxy, ds.Timeout)
		if ds.BaseURL != "" {
			f.BaseURL = ds.BaseURL
		}
		return f, nil
	case "eodhd":
		return collector.NewEODHDFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.RateLimit, ds.Timeout), nil
	case "static":
		// Offline demo data: a year of synthetic bars for a few symbols.
		end := time.Now().UTC().Truncate(24 * time.Hour)
		return &collector.StaticFetcher{Series: map[string][]model.PriceRow{
			"AAPL":   collector.GenerateBars(150, end, 260),
			"ABP.AX": collector.GenerateBars(3.2, end, 260),
		}}, nil
	}
	return nil, fmt.Errorf("unknown provider %q", ds.Provider)
}
