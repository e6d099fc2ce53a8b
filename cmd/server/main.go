// Package main provides the dashboard API server:
// - HTTP API: volume, flow, cards, transactions, tokens
// - Live (websocket): card updates every LIVE_INTERVAL
// - Snapshots (scheduled): series persisted to ClickHouse when configured
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bridge-flow-lab/internal/api"
	"bridge-flow-lab/internal/config"
	"bridge-flow-lab/internal/dashboard"
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/fixtures"
	"bridge-flow-lab/internal/logging"
	"bridge-flow-lab/internal/registry"
	"bridge-flow-lab/internal/reporting"
	"bridge-flow-lab/internal/storage"
	chstore "bridge-flow-lab/internal/storage/clickhouse"
	"bridge-flow-lab/internal/storage/memory"
	"bridge-flow-lab/internal/storage/migrations"
	pgstore "bridge-flow-lab/internal/storage/postgres"
	redisstore "bridge-flow-lab/internal/storage/redis"
)

// Per-network demo seeds so mainnet and testnet differ.
var demoSeeds = map[domain.Network]uint64{
	domain.NetworkMainnet: 42,
	domain.NetworkTestnet: 7,
}

// allStores holds all storage implementations.
type allStores struct {
	sources map[domain.Network]storage.TransferSource
	prices  map[domain.Network]storage.TokenPriceStore
	series  storage.SeriesStore // nil when snapshots are disabled
	cache   storage.Cache       // nil when caching is disabled
}

func main() {
	// Parse flags (env vars as defaults)
	envFile := flag.String("env-file", ".env", "Optional .env file")
	useMemory := flag.Bool("use-memory", false, "Serve generated demo data from in-memory storage")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (default HTTP_ADDR)")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations on startup")
	snapshotInterval := flag.Duration("snapshot-interval", time.Hour, "Series snapshot interval (0 disables)")

	flag.Parse()

	if *useMemory {
		os.Setenv("USE_MEMORY", "true")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	// Setup logger
	base := logging.Init(cfg.LogLevel)
	logger := logging.Component(base, "server")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.Default()

	// Create stores
	stores, cleanup, err := createStores(ctx, cfg, reg, *migrate, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stores")
	}
	defer cleanup()

	service := dashboard.NewService(reg, stores.sources, cfg.HomeChain, base)
	for network, prices := range stores.prices {
		service.WithPrices(network, prices)
	}
	if stores.series != nil {
		service.WithSnapshots(stores.series)
	}

	server := api.NewServer(service, api.Options{
		Cache:        stores.cache,
		CacheTTL:     cfg.CacheTTL,
		RateLimit:    cfg.RateLimit.RPS,
		Burst:        cfg.RateLimit.Burst,
		LiveInterval: cfg.LiveInterval,
		Logger:       base,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error().Msg("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	go server.Live().Run(ctx)

	if stores.series != nil && *snapshotInterval > 0 {
		generator := reporting.NewGenerator(service)
		go runSnapshotScheduler(ctx, generator, service.Networks(), stores.series, *snapshotInterval, base)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
	}()

	logger.Info().
		Str("addr", cfg.HTTPAddr).
		Bool("memory", cfg.UseMemory).
		Str("home_chain", string(cfg.HomeChain)).
		Msg("starting HTTP server")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server")
	}

	logger.Info().Msg("shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, cfg *config.Config, reg *registry.Registry, migrate bool, logger zerolog.Logger) (*allStores, func(), error) {
	stores := &allStores{
		sources: make(map[domain.Network]storage.TransferSource),
		prices:  make(map[domain.Network]storage.TokenPriceStore),
	}

	if cfg.UseMemory {
		for _, network := range reg.Networks() {
			transfers := memory.NewTransferStore()
			prices := memory.NewTokenPriceStore()

			opts := fixtures.DefaultOptions(time.Now().UTC())
			opts.Seed = demoSeeds[network]
			if err := fixtures.Load(ctx, transfers, prices, opts); err != nil {
				return nil, nil, fmt.Errorf("load %s fixtures: %w", network, err)
			}

			stores.sources[network] = transfers
			stores.prices[network] = prices
		}
		stores.series = memory.NewSeriesStore()
		stores.cache = memory.NewCache()
		logger.Info().Int("networks", len(stores.sources)).Msg("using in-memory demo data")
		return stores, func() {}, nil
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// PostgreSQL (one bridge indexer database per network)
	for _, network := range reg.Networks() {
		dsn := cfg.Postgres.DSN(network)
		if dsn == "" {
			continue
		}
		netCfg, err := reg.Network(network)
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to postgres (%s): %w", network, err)
		}
		closers = append(closers, pool.Close)

		if migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("migrate postgres (%s): %w", network, err)
			}
			logger.Info().Str("network", string(network)).Strs("applied", applied).Msg("postgres migrations")
		}

		stores.sources[network] = pgstore.NewTransferStore(pool, netCfg)
		stores.prices[network] = pgstore.NewTokenPriceStore(pool)
	}

	// ClickHouse (snapshots)
	if cfg.ClickHouse.DSN != "" {
		var conn *chstore.Conn
		var err error
		if migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.series = chstore.NewSeriesStore(conn)
	}

	// Redis (response cache)
	if cfg.Redis.Addr != "" {
		cache, err := redisstore.NewCache(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "bridge-flow-lab:",
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { cache.Close() })
		stores.cache = cache
	}

	return stores, cleanup, nil
}

// runSnapshotScheduler publishes all-time series for every network and granularity on schedule.
func runSnapshotScheduler(
	ctx context.Context,
	generator *reporting.Generator,
	networks []domain.Network,
	store storage.SeriesStore,
	interval time.Duration,
	logger zerolog.Logger,
) {
	logger = logging.Component(logger, "snapshots")
	logger.Info().Dur("interval", interval).Msg("starting snapshot scheduler")

	run := func() {
		start := time.Now()
		rows := 0
		for _, network := range networks {
			for _, g := range domain.Granularities {
				report, err := generator.Generate(ctx, dashboard.Query{
					Network:     network,
					Period:      domain.PeriodAllTime,
					Granularity: g,
				})
				if err != nil {
					logger.Error().Err(err).Str("network", string(network)).Str("granularity", string(g)).Msg("snapshot failed")
					continue
				}
				n, err := reporting.Publish(ctx, store, report)
				if err != nil {
					logger.Error().Err(err).Str("network", string(network)).Str("granularity", string(g)).Msg("snapshot store failed")
					continue
				}
				rows += n
			}
		}
		logger.Info().Int("rows", rows).Dur("elapsed", time.Since(start)).Msg("snapshots published")
	}

	// Run immediately on start
	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
