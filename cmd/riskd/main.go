// Command riskd runs the disease risk service: the risk table refresh
// pipeline, the alert scanner and the health server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/disease-risk-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/disease-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/disease-risk-service/internal/adapter/modelfeed"
	"github.com/couchcryptid/disease-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/disease-risk-service/internal/alerting"
	"github.com/couchcryptid/disease-risk-service/internal/config"
	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/engine"
	"github.com/couchcryptid/disease-risk-service/internal/feeds"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"github.com/couchcryptid/disease-risk-service/internal/pipeline"
	"github.com/couchcryptid/disease-risk-service/internal/registry"
	"github.com/couchcryptid/disease-risk-service/internal/riskdata"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	reg, err := registry.LoadFiles(cfg.DiseaseRegistryPath, cfg.CityRegistryPath)
	if err != nil {
		logger.Error("failed to load registry", "error", err)
		os.Exit(1)
	}
	table, err := riskdata.LoadFile(cfg.RiskTablePath, reg)
	if err != nil {
		logger.Error("failed to load risk table", "error", err)
		os.Exit(1)
	}
	store := riskdata.NewStore(table)
	metrics.RiskTableRows.Set(float64(store.Rows()))
	logger.Info("risk data loaded",
		"cities", len(reg.Cities()),
		"diseases", len(reg.Diseases()),
		"risk_rows", store.Rows(),
	)

	eng := engine.New(reg, store, engine.WithClock(clock))

	// Live weather (feature-flagged via OPENWEATHER_ENABLED / OPENWEATHER_API_KEY).
	var live domain.LiveSource
	if cfg.OpenWeatherEnabled {
		client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherTimeout, metrics, logger)
		limited := openweather.NewRateLimitedSource(client, cfg.OpenWeatherRPS, 1)
		live = openweather.NewCachedSource(limited, cfg.OpenWeatherCacheSize, cfg.OpenWeatherCacheTTL, clock, metrics)
		metrics.LiveEnabled.Set(1)
		logger.Info("live weather enabled",
			"cache_size", cfg.OpenWeatherCacheSize,
			"cache_ttl", cfg.OpenWeatherCacheTTL,
			"rps", cfg.OpenWeatherRPS,
		)
	} else {
		logger.Info("live weather disabled")
	}

	var model domain.ModelSource
	if cfg.ModelFeedURL != "" {
		model = modelfeed.NewClient(cfg.ModelFeedURL, cfg.ModelFeedTimeout, metrics, logger)
		logger.Info("model forecast feed enabled", "url", cfg.ModelFeedURL)
	}

	collector := feeds.NewCollector(live, model, feeds.Config{
		LiveTimeout:  cfg.OpenWeatherTimeout,
		ModelTimeout: cfg.ModelFeedTimeout,
	}, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	transformer := pipeline.NewTransformer(reg, logger)
	p := pipeline.New(reader, transformer, store, logger, metrics, cfg.BatchSize)

	var (
		writer  *kafkaadapter.Writer
		scanner *alerting.Scanner
	)
	if cfg.AlertEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		scanner = alerting.NewScanner(eng, reg, collector, writer, alerting.Config{
			Interval:      cfg.AlertInterval,
			MinRisk:       cfg.AlertMinRisk,
			OutlookMonths: cfg.AlertOutlookMonths,
		}, clock, logger, metrics)
	} else {
		logger.Info("alerting disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, logger,
		httpadapter.Check{Name: "risk_table", Run: store.CheckReadiness},
		httpadapter.Check{Name: "pipeline", Run: p.CheckReadiness},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Start HTTP server.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx, cfg.ShutdownTimeout); err != nil {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start risk table refresh pipeline.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	// Start alert scanner.
	if scanner != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scanner.Run(ctx); err != nil {
				logger.Error("alert scanner error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	wg.Wait()
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
