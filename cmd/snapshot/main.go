// Package main computes bridge volume series for every network and interval,
// stores them in ClickHouse and optionally writes Markdown/CSV reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bridge-flow-lab/internal/aggregation"
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
	pgstore "bridge-flow-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", ".env", "Optional .env file")
	outputDir := flag.String("output-dir", "", "Write REPORT/VOLUME/FLOW files to this directory")
	useFixtures := flag.Bool("use-memory", false, "Use generated demo data instead of PostgreSQL")
	periodFlag := flag.String("period", string(domain.PeriodAllTime), "Time period (Last 24h, Last Week, Last Month, Last year, All time)")
	networkFlag := flag.String("network", "", "Single network to process (default: all configured)")
	flag.Parse()

	if *useFixtures {
		os.Setenv("USE_MEMORY", "true")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Component(logging.Init(cfg.LogLevel), "snapshot")

	period, err := aggregation.ParseTimePeriod(*periodFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	reg := registry.Default()
	now := time.Now().UTC()

	// Create stores based on mode
	stores, cleanup, err := createStores(ctx, cfg, reg, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating stores: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// Snapshot store: ClickHouse when configured, memory otherwise
	var series storage.SeriesStore = memory.NewSeriesStore()
	if cfg.ClickHouse.DSN != "" && !cfg.UseMemory {
		conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()
		series = chstore.NewSeriesStore(conn)
	}

	service := newService(reg, stores, cfg.HomeChain, logger, now)
	generator := reporting.NewGenerator(service).WithClock(func() time.Time { return now })

	networks := service.Networks()
	if *networkFlag != "" {
		n, err := registry.ParseNetwork(*networkFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		networks = []domain.Network{n}
	}

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			os.Exit(1)
		}
	}

	total := 0
	for _, network := range networks {
		for _, g := range aggregation.IntervalsForPeriod(period) {
			report, err := generator.Generate(ctx, dashboard.Query{Network: network, Period: period, Granularity: g})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error generating %s/%s: %v\n", network, g, err)
				os.Exit(1)
			}

			n, err := reporting.Publish(ctx, series, report)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error publishing %s/%s: %v\n", network, g, err)
				os.Exit(1)
			}
			total += n

			if *outputDir != "" {
				if err := writeReport(*outputDir, report); err != nil {
					fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
					os.Exit(1)
				}
			}

			logger.Info().
				Str("network", string(network)).
				Str("granularity", string(g)).
				Int("rows", n).
				Str("total_usd", report.TotalUSD.StringFixed(2)).
				Msg("snapshot stored")
		}
	}

	fmt.Printf("Stored %d snapshot rows for %d network(s), period %q\n", total, len(networks), period)
	if *outputDir != "" {
		fmt.Printf("Reports written to %s/\n", *outputDir)
	}
}

// demoSeeds match cmd/server so both commands see the same demo data.
var demoSeeds = map[domain.Network]uint64{
	domain.NetworkMainnet: 42,
	domain.NetworkTestnet: 7,
}

// snapshotStores holds the per-network read stores.
type snapshotStores struct {
	sources map[domain.Network]storage.TransferSource
	prices  map[domain.Network]storage.TokenPriceStore
}

// createStores connects to PostgreSQL per network, or loads fixtures into memory stores.
func createStores(ctx context.Context, cfg *config.Config, reg *registry.Registry, now time.Time) (*snapshotStores, func(), error) {
	stores := &snapshotStores{
		sources: make(map[domain.Network]storage.TransferSource),
		prices:  make(map[domain.Network]storage.TokenPriceStore),
	}

	if cfg.UseMemory {
		for _, network := range reg.Networks() {
			transfers := memory.NewTransferStore()
			prices := memory.NewTokenPriceStore()

			opts := fixtures.DefaultOptions(now)
			opts.Seed = demoSeeds[network]
			if err := fixtures.Load(ctx, transfers, prices, opts); err != nil {
				return nil, nil, fmt.Errorf("load %s fixtures: %w", network, err)
			}

			stores.sources[network] = transfers
			stores.prices[network] = prices
		}
		return stores, func() {}, nil
	}

	var pools []*pgstore.Pool
	cleanup := func() {
		for _, p := range pools {
			p.Close()
		}
	}

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
		pools = append(pools, pool)
		stores.sources[network] = pgstore.NewTransferStore(pool, netCfg)
		stores.prices[network] = pgstore.NewTokenPriceStore(pool)
	}

	return stores, cleanup, nil
}

// newService builds the dashboard service with the token_prices overlay applied,
// matching cmd/server.
func newService(reg *registry.Registry, stores *snapshotStores, home domain.Chain, logger zerolog.Logger, now time.Time) *dashboard.Service {
	service := dashboard.NewService(reg, stores.sources, home, logger).
		WithClock(func() time.Time { return now })
	for network, prices := range stores.prices {
		service.WithPrices(network, prices)
	}
	return service
}

// writeReport writes the Markdown report and both CSV exports of one report.
func writeReport(dir string, r *reporting.Report) error {
	suffix := fmt.Sprintf("%s_%s", strings.ToUpper(string(r.Network)), strings.ToUpper(string(r.Granularity)))

	files := map[string]string{
		"REPORT_" + suffix + ".md":  reporting.RenderMarkdown(r),
		"VOLUME_" + suffix + ".csv": reporting.RenderSeriesCSV(r.Series),
		"FLOW_" + suffix + ".csv":   reporting.RenderFlowCSV(r),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
