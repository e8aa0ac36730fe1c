package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// RPCConfig holds the chain JSON-RPC endpoint configuration
type RPCConfig struct {
	URL               string        `mapstructure:"url"`
	Throttle          time.Duration `mapstructure:"throttle"`
	BatchAccountsInfo int           `mapstructure:"batch_accounts_info"`
	BatchSignatures   int           `mapstructure:"batch_signatures"`
	BatchTokenHolders int           `mapstructure:"batch_token_holders"`
}

// DatabaseConfig holds database configuration for the Postgres cache backend
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig holds Redis configuration for the Redis cache backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig selects and configures the progress cache backend
type CacheConfig struct {
	// Backend is one of "file", "redis", "postgres" or "memory"
	Backend  string         `mapstructure:"backend"`
	Dir      string         `mapstructure:"dir"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
}

// OutputConfig holds the generated document destination
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// CoinGeckoConfig holds the CoinGecko source configuration
type CoinGeckoConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	APIKey          string        `mapstructure:"api_key"`
	BatchDetails    int           `mapstructure:"batch_details"`
	ThrottleDetails time.Duration `mapstructure:"throttle_details"`
}

// LegacyListConfig holds the legacy CDN list source configuration
type LegacyListConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	URL             string        `mapstructure:"url"`
	SkipTags        []string      `mapstructure:"skip_tags"`
	SignatureMaxAge time.Duration `mapstructure:"signature_max_age"`
	MinHolders      int           `mapstructure:"min_holders"`
	BannedContent   []string      `mapstructure:"banned_content"`
}

// TrustedListConfig holds one curated-list source configuration; the same
// shape configures ignore lists
type TrustedListConfig struct {
	Name     string   `mapstructure:"name"`
	URL      string   `mapstructure:"url"`
	SkipTags []string `mapstructure:"skip_tags"`
}

// JupiterConfig holds the Jupiter list source configuration
type JupiterConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// ProvidersConfig holds all source configurations. TrustedLists feed the
// aggregate in the order given; IgnoreLists are subtracted from it.
type ProvidersConfig struct {
	CoinGecko    CoinGeckoConfig     `mapstructure:"coingecko"`
	LegacyList   LegacyListConfig    `mapstructure:"legacy_list"`
	Jupiter      JupiterConfig       `mapstructure:"jupiter"`
	TrustedLists []TrustedListConfig `mapstructure:"trusted_lists"`
	IgnoreLists  []TrustedListConfig `mapstructure:"ignore_lists"`
}

// AggregatorConfig holds configuration for the aggregator program
type AggregatorConfig struct {
	BaseConfig   `mapstructure:",squash"`
	ChainID      int             `mapstructure:"chain_id"`
	RPC          RPCConfig       `mapstructure:"rpc"`
	Cache        CacheConfig     `mapstructure:"cache"`
	Output       OutputConfig    `mapstructure:"output"`
	Providers    ProvidersConfig `mapstructure:"providers"`
	LargestMints []string        `mapstructure:"largest_mints"`
}

// LoadAggregatorConfig loads configuration for the aggregator program
func LoadAggregatorConfig(configFile string, envPath string) (*AggregatorConfig, error) {
	v := configureViper("aggregator", configFile, envPath)

	// Set defaults
	v.SetDefault("chain_id", 101)
	v.SetDefault("rpc.throttle", "0s")
	v.SetDefault("rpc.batch_accounts_info", 250)
	v.SetDefault("rpc.batch_signatures", 100)
	v.SetDefault("rpc.batch_token_holders", 5)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.database.port", 5432)
	v.SetDefault("cache.database.sslmode", "disable")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("output.path", "solana-tokenlist.json")
	v.SetDefault("providers.coingecko.enabled", true)
	v.SetDefault("providers.coingecko.batch_details", 50)
	v.SetDefault("providers.coingecko.throttle_details", "1m")
	v.SetDefault("providers.legacy_list.enabled", true)
	v.SetDefault("providers.legacy_list.url",
		"https://cdn.jsdelivr.net/gh/solana-labs/token-list@main/src/tokens/solana.tokenlist.json")
	v.SetDefault("providers.legacy_list.signature_max_age", "720h")
	v.SetDefault("providers.legacy_list.min_holders", 100)
	v.SetDefault("providers.jupiter.enabled", false)
	v.SetDefault("providers.jupiter.url", "https://tokens.jup.ag/tokens?tags=verified")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config AggregatorConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.RPC.URL == "" {
		return nil, errors.New("rpc.url is required")
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("UTL_AGGREGATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		"chain_id",
		// RPC
		"rpc.url",
		"rpc.throttle",
		"rpc.batch_accounts_info",
		"rpc.batch_signatures",
		"rpc.batch_token_holders",
		// Cache
		"cache.backend",
		"cache.dir",
		"cache.redis.addr",
		"cache.redis.password",
		"cache.redis.db",
		"cache.database.host",
		"cache.database.port",
		"cache.database.user",
		"cache.database.password",
		"cache.database.dbname",
		"cache.database.sslmode",
		// Output
		"output.path",
		// Providers
		"providers.coingecko.enabled",
		"providers.coingecko.api_key",
		"providers.coingecko.batch_details",
		"providers.coingecko.throttle_details",
		"providers.legacy_list.enabled",
		"providers.legacy_list.url",
		"providers.legacy_list.skip_tags",
		"providers.legacy_list.signature_max_age",
		"providers.legacy_list.min_holders",
		"providers.legacy_list.banned_content",
		"providers.jupiter.enabled",
		"providers.jupiter.url",
		// Holder query allow-list
		"largest_mints",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
