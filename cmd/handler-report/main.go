// Command handler-report exports the system call handlers of a Cisco
// Unity Connection server together with their active schedule names as
// a CSV file.
//
// Configuration comes from the environment (optionally via a .env
// file); see pkg/config for the full list of settings.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/unity-tools/handler-report/pkg/config"
	"github.com/unity-tools/handler-report/pkg/cupi"
	"github.com/unity-tools/handler-report/pkg/logging"
	"github.com/unity-tools/handler-report/pkg/pagination"
	"github.com/unity-tools/handler-report/pkg/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "handler-report: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Redis-backed response cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Response cache enabled")
	}

	// Optional metrics/health listener for long runs
	if cfg.MetricsAddr != "" {
		go serveMetrics(logger, cfg.MetricsAddr)
	}

	clientCfg := cupi.DefaultConfig(cfg.BaseURL, cfg.Username, cfg.Password)
	clientCfg.Redis = redisClient
	clientCfg.InsecureTLS = cfg.InsecureTLS
	clientCfg.PaceInterval = cfg.PaceInterval

	client, err := cupi.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create CUPI client: %w", err)
	}
	defer client.Close()

	fetcher := pagination.NewFetcher(client, pagination.Config{RowsPerPage: cfg.RowsPerPage})

	logger.Info().
		Str("base_url", cfg.BaseURL).
		Int("rows_per_page", cfg.RowsPerPage).
		Bool("strict", cfg.StrictResolve).
		Msg("Starting call handler report")

	// Phase 1: collect and deduplicate handlers
	index := report.NewIndex()
	fetched, err := report.CollectHandlers(ctx, fetcher, index, cfg.IncludeAll)
	if err != nil {
		return fmt.Errorf("fetch call handlers: %w", err)
	}

	// Phase 2: resolve schedules and write the report
	output, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer output.Close()

	sink, err := report.NewCSVSink(output)
	if err != nil {
		return err
	}

	resolver := report.NewResolver(fetcher)
	assembler := report.NewAssembler(resolver, sink, cfg.StrictResolve)
	if err := assembler.Run(ctx, index.Handlers()); err != nil {
		return err
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}

	logger.Info().
		Int("handlers_fetched", fetched).
		Int("rows_written", index.Len()).
		Str("output", cfg.OutputPath).
		Msg("Report written")

	return nil
}

// serveMetrics exposes Prometheus metrics and a health endpoint while
// the report runs. Failures are logged, not fatal; metrics are a
// convenience, not part of the report.
func serveMetrics(logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	logger.Info().Str("addr", addr).Msg("Metrics listener started")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn().Err(err).Msg("Metrics listener stopped")
	}
}
