package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cajadiaria/internal/cache"
	"cajadiaria/internal/config"
	"cajadiaria/internal/ledger"
	"cajadiaria/internal/ledger/memory"
	pgledger "cajadiaria/internal/ledger/postgres"
	"cajadiaria/internal/logger"
	"cajadiaria/internal/rates"
	"cajadiaria/internal/service"
)

var (
	cfg     config.Config
	svc     *service.Service
	closers []func() error
)

var rootCmd = &cobra.Command{
	Use:   "cajadiaria",
	Short: "Cash reconciliation and forecasting for a small retail shop",
	Long: `cajadiaria keeps a small shop's daily books: it reconciles declared
sales against collected payments, projects cash flow over the current
month, assesses financial health, and aggregates profit-and-loss
reports.

Without DATABASE_URL it runs against a seeded in-memory ledger, which
is useful for trying the commands out.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRun: func(_ *cobra.Command, _ []string) { shutdown() },
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		shutdown()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func initApp(_ *cobra.Command, _ []string) error {
	cfg = config.Load()
	if err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}
	log := logger.WithComponent("cli")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var lg ledger.Ledger
	if cfg.DatabaseURL != "" {
		pg, err := pgledger.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres unavailable and DATABASE_URL is set, refusing in-memory fallback: %w", err)
		}
		lg = pg
		closers = append(closers, pg.Close)
		log.Info().Msg("ledger: postgres")
	} else {
		lg = memory.NewSeeded()
		log.Info().Msg("ledger: seeded in-memory")
	}

	provider, err := rateProvider(ctx)
	if err != nil {
		return err
	}

	svc = service.New(lg, provider)
	return nil
}

// rateProvider picks the conversion-rate source: a fixed rate when
// FIXED_SELL_RATE is set, otherwise the live fetch, optionally wrapped
// in the redis cache.
func rateProvider(ctx context.Context) (rates.Provider, error) {
	log := logger.WithComponent("cli")

	if cfg.FixedSellRate != "" {
		sell, err := decimal.NewFromString(cfg.FixedSellRate)
		if err != nil {
			return nil, fmt.Errorf("invalid FIXED_SELL_RATE %q: %w", cfg.FixedSellRate, err)
		}
		return rates.Fixed(sell), nil
	}

	provider := rates.Provider(rates.NewHTTPProvider(cfg.OfficialRateURL, cfg.FallbackRateURL))
	if cfg.RedisAddr == "" {
		return provider, nil
	}

	redisCache := cache.NewRedisRateCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate caching disabled")
		return provider, nil
	}
	closers = append(closers, redisCache.Close)
	log.Info().Msg("rate cache: redis")
	return rates.Cached(provider, redisCache, time.Duration(cfg.RateCacheTTLMinutes)*time.Minute), nil
}

func shutdown() {
	for _, c := range closers {
		_ = c()
	}
	closers = nil
}
