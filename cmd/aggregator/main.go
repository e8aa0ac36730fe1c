package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/cache"
	"github.com/solana-tokenlist/utl-aggregator/internal/config"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/generator"
	"github.com/solana-tokenlist/utl-aggregator/internal/logger"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers/vendors/coingecko"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers/vendors/jupiter"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers/vendors/legacylist"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers/vendors/trustedlist"
	"github.com/solana-tokenlist/utl-aggregator/internal/rpc"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	outputPath = flag.String("output", "", "Path of the generated token list (overrides output.path)")
	clearCache = flag.Bool("clear-cache", false, "Drop the chain-query progress cache and exit")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAggregatorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context cancelled on shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "aggregator",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Aggregator")

	chainID := domain.ChainID(cfg.ChainID)
	if !domain.IsValidChainID(chainID) {
		logger.Fatal("Invalid chain_id", zap.Int("chain_id", cfg.ChainID))
	}

	// Initialize adapters
	httpClient := adapter.NewHTTPClient(60 * time.Second)
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	fileSystem := adapter.NewFileSystem()

	// Initialize progress cache backend
	store, err := newCacheStore(cfg, fileSystem, jsonAdapter)
	if err != nil {
		logger.Fatal("Failed to initialize cache store", zap.Error(err), zap.String("backend", cfg.Cache.Backend))
	}
	logger.Info("Initialized cache store", zap.String("backend", cfg.Cache.Backend))

	// Initialize chain query batchers, one cache scope per source
	rpcClient := rpc.NewHTTPClient(httpClient, cfg.RPC.URL)
	legacyBatcher := rpc.NewBatcher(rpcClient, store, clock, batcherOptions(cfg, legacylist.ProviderName))
	coingeckoBatcher := rpc.NewBatcher(rpcClient, store, clock, batcherOptions(cfg, coingecko.ProviderName))

	if *clearCache {
		if err := legacyBatcher.ClearCache(ctx, chainID); err != nil {
			logger.Fatal("Failed to clear cache", zap.Error(err))
		}
		if err := coingeckoBatcher.ClearCache(ctx, chainID); err != nil {
			logger.Fatal("Failed to clear cache", zap.Error(err))
		}
		logger.Info("Cleared chain-query progress cache", zap.Int("chain_id", int(chainID)))
		return
	}

	// Assemble sources; configuration order sets merge precedence
	largestMints := cfg.LargestMints
	if len(largestMints) == 0 {
		largestMints = domain.DefaultLargestMints
	}

	var standard []providers.Provider
	if cfg.Providers.CoinGecko.Enabled {
		standard = append(standard, coingecko.New(
			cfg.Providers.CoinGecko.APIKey,
			httpClient,
			coingeckoBatcher,
			clock,
			coingecko.Options{
				BatchDetails:    cfg.Providers.CoinGecko.BatchDetails,
				ThrottleDetails: cfg.Providers.CoinGecko.ThrottleDetails,
			},
		))
	}
	if cfg.Providers.LegacyList.Enabled {
		standard = append(standard, legacylist.New(
			cfg.Providers.LegacyList.URL,
			httpClient,
			legacyBatcher,
			legacylist.Options{
				ChainID:         chainID,
				SkipTags:        toTags(cfg.Providers.LegacyList.SkipTags),
				SignatureMaxAge: cfg.Providers.LegacyList.SignatureMaxAge,
				MinHolders:      cfg.Providers.LegacyList.MinHolders,
				BannedContent:   bannedContent(cfg.Providers.LegacyList.BannedContent),
				LargestMints:    largestMints,
			},
		))
	}
	if cfg.Providers.Jupiter.Enabled {
		standard = append(standard, jupiter.New(cfg.Providers.Jupiter.URL, httpClient))
	}
	for _, list := range cfg.Providers.TrustedLists {
		standard = append(standard, trustedlist.New(list.Name, list.URL, httpClient, trustedlist.Options{
			ChainID:  chainID,
			SkipTags: toTags(list.SkipTags),
		}))
	}

	var ignore []providers.Provider
	for _, list := range cfg.Providers.IgnoreLists {
		ignore = append(ignore, trustedlist.New(list.Name, list.URL, httpClient, trustedlist.Options{
			ChainID: chainID,
		}))
	}

	if len(standard) == 0 {
		logger.Fatal("No standard sources enabled")
	}

	// Generate and write the document
	gen := generator.New(standard, ignore, clock)

	started := clock.Now()
	tokenList, err := gen.GenerateTokenList(ctx)
	if err != nil {
		logger.Fatal("Failed to generate token list", zap.Error(err))
	}

	path := cfg.Output.Path
	if *outputPath != "" {
		path = *outputPath
	}

	document, err := json.MarshalIndent(tokenList, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode token list", zap.Error(err))
	}
	if err := fileSystem.WriteFile(path, document, 0o644); err != nil {
		logger.Fatal("Failed to write token list", zap.Error(err), zap.String("path", path))
	}

	logger.Info("Wrote token list",
		zap.String("path", path),
		zap.Int("tokens", len(tokenList.Tokens)),
		zap.Duration("elapsed", clock.Since(started)),
	)
}

// newCacheStore builds the configured cache backend
func newCacheStore(cfg *config.AggregatorConfig, fileSystem adapter.FileSystem, jsonAdapter adapter.JSON) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "file", "":
		return cache.NewFileStore(fileSystem, jsonAdapter, cfg.Cache.Dir), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return cache.NewRedisStore(client, jsonAdapter, "utl-aggregator"), nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.Cache.Database.DSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store := cache.NewPGStore(db, jsonAdapter)
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
		}
		return store, nil
	case "memory":
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// batcherOptions maps the RPC section onto per-source batcher options
func batcherOptions(cfg *config.AggregatorConfig, cachePrefix string) rpc.BatcherOptions {
	opts := rpc.DefaultBatcherOptions(cachePrefix)
	opts.Throttle = cfg.RPC.Throttle
	if cfg.RPC.BatchAccountsInfo > 0 {
		opts.BatchAccountsInfo = cfg.RPC.BatchAccountsInfo
	}
	if cfg.RPC.BatchSignatures > 0 {
		opts.BatchSignatures = cfg.RPC.BatchSignatures
	}
	if cfg.RPC.BatchTokenHolders > 0 {
		opts.BatchTokenHolders = cfg.RPC.BatchTokenHolders
	}
	return opts
}

func toTags(tags []string) []domain.Tag {
	converted := make([]domain.Tag, 0, len(tags))
	for _, tag := range tags {
		converted = append(converted, domain.Tag(tag))
	}
	return converted
}

func bannedContent(configured []string) []string {
	if len(configured) == 0 {
		return legacylist.DefaultBannedContent
	}
	return configured
}
