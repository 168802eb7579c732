package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/climatesphere/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climatesphere/internal/adapter/kafka"
	"github.com/couchcryptid/climatesphere/internal/adapter/mlapi"
	"github.com/couchcryptid/climatesphere/internal/config"
	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/observability"
	"github.com/couchcryptid/climatesphere/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	regions := domain.DefaultRegionTable()
	if cfg.RegionsFile != "" {
		regions, err = domain.LoadRegionFile(cfg.RegionsFile)
		if err != nil {
			logger.Error("failed to load regions", "path", cfg.RegionsFile, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("regions loaded", "count", regions.Len())

	// Remote risk model (feature-flagged via ML_API_ENABLED / ML_API_URL).
	var (
		predictor domain.Predictor
		health    domain.HealthChecker
	)
	if cfg.MLAPIEnabled {
		client := mlapi.NewClient(cfg.MLAPIURL, mlapi.Options{
			Timeout:         cfg.MLAPITimeout,
			BreakerFailures: cfg.MLBreakerFailures,
			BreakerCooldown: cfg.MLBreakerCooldown,
		}, metrics, logger)
		cached := mlapi.NewCachedPredictor(client, cfg.MLAPICacheSize, metrics)
		predictor, health = cached, cached
		logger.Info("ml api enabled", "url", cfg.MLAPIURL, "timeout", cfg.MLAPITimeout, "cache_size", cfg.MLAPICacheSize)
	} else {
		logger.Info("ml api disabled, using local risk model")
	}

	// Snapshot publishing (feature-flagged via KAFKA_ENABLED).
	var (
		publisher pipeline.SnapshotPublisher
		kafkaPub  *kafkaadapter.Publisher
	)
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	sim := pipeline.NewSimulator(regions, predictor, publisher, pipeline.SimulatorOptions{
		PredictTimeout: cfg.MLAPITimeout,
		PublishTimeout: cfg.KafkaPublishTimeout,
	}, logger, metrics)
	store := pipeline.NewStore(sim, pipeline.StoreOptions{
		Debounce:     cfg.SimulationDebounce,
		TTL:          cfg.SessionTTL,
		DefaultYears: cfg.SimulationDefaultYears,
	}, logger, metrics)
	api := httpadapter.NewAPI(sim, store, health, cfg.SimulationDefaultYears, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, sim, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return store.RunJanitor(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	sim.Flush()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
