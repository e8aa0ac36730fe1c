package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAggregatorConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *AggregatorConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
chain_id: 103
rpc:
  url: "https://rpc.example.com"
  throttle: "2s"
  batch_accounts_info: 100
  batch_signatures: 50
  batch_token_holders: 3
cache:
  backend: redis
  redis:
    addr: "redis.example.com:6379"
    password: "secret"
    db: 2
output:
  path: "out/list.json"
providers:
  coingecko:
    enabled: true
    api_key: "test-key"
    batch_details: 25
    throttle_details: "30s"
  legacy_list:
    enabled: true
    url: "https://cdn.example.com/list.json"
    skip_tags:
      - "lp-token"
    signature_max_age: "240h"
    min_holders: 50
  trusted_lists:
    - name: "solflare"
      url: "https://example.com/trusted.json"
  ignore_lists:
    - name: "blocklist"
      url: "https://example.com/ignore.json"
largest_mints:
  - "MintUSDC"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *AggregatorConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, 103, cfg.ChainID)
				assert.Equal(t, "https://rpc.example.com", cfg.RPC.URL)
				assert.Equal(t, 2*time.Second, cfg.RPC.Throttle)
				assert.Equal(t, 100, cfg.RPC.BatchAccountsInfo)
				assert.Equal(t, 50, cfg.RPC.BatchSignatures)
				assert.Equal(t, 3, cfg.RPC.BatchTokenHolders)
				assert.Equal(t, "redis", cfg.Cache.Backend)
				assert.Equal(t, "redis.example.com:6379", cfg.Cache.Redis.Addr)
				assert.Equal(t, "secret", cfg.Cache.Redis.Password)
				assert.Equal(t, 2, cfg.Cache.Redis.DB)
				assert.Equal(t, "out/list.json", cfg.Output.Path)
				assert.Equal(t, "test-key", cfg.Providers.CoinGecko.APIKey)
				assert.Equal(t, 25, cfg.Providers.CoinGecko.BatchDetails)
				assert.Equal(t, 30*time.Second, cfg.Providers.CoinGecko.ThrottleDetails)
				assert.Equal(t, "https://cdn.example.com/list.json", cfg.Providers.LegacyList.URL)
				assert.Equal(t, []string{"lp-token"}, cfg.Providers.LegacyList.SkipTags)
				assert.Equal(t, 240*time.Hour, cfg.Providers.LegacyList.SignatureMaxAge)
				assert.Equal(t, 50, cfg.Providers.LegacyList.MinHolders)
				require.Len(t, cfg.Providers.TrustedLists, 1)
				assert.Equal(t, "solflare", cfg.Providers.TrustedLists[0].Name)
				require.Len(t, cfg.Providers.IgnoreLists, 1)
				assert.Equal(t, "blocklist", cfg.Providers.IgnoreLists[0].Name)
				assert.Equal(t, []string{"MintUSDC"}, cfg.LargestMints)
			},
		},
		{
			name: "config with defaults",
			configFile: `
rpc:
  url: "https://rpc.example.com"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *AggregatorConfig) {
				// Check defaults
				assert.Equal(t, 101, cfg.ChainID)
				assert.Equal(t, 250, cfg.RPC.BatchAccountsInfo)
				assert.Equal(t, 100, cfg.RPC.BatchSignatures)
				assert.Equal(t, 5, cfg.RPC.BatchTokenHolders)
				assert.Equal(t, "file", cfg.Cache.Backend)
				assert.Equal(t, "solana-tokenlist.json", cfg.Output.Path)
				assert.True(t, cfg.Providers.CoinGecko.Enabled)
				assert.Equal(t, 50, cfg.Providers.CoinGecko.BatchDetails)
				assert.Equal(t, time.Minute, cfg.Providers.CoinGecko.ThrottleDetails)
				assert.True(t, cfg.Providers.LegacyList.Enabled)
				assert.Equal(t, 720*time.Hour, cfg.Providers.LegacyList.SignatureMaxAge)
				assert.Equal(t, 100, cfg.Providers.LegacyList.MinHolders)
				assert.False(t, cfg.Providers.Jupiter.Enabled)
			},
		},
		{
			name: "missing rpc url",
			configFile: `
debug: true
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "invalid yaml",
			configFile: `
				rpc:
				  batch_signatures: invalid
			`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadAggregatorConfig(configFile, "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "aggregator",
		Password: "secret",
		DBName:   "cache",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=aggregator password=secret dbname=cache sslmode=disable",
		cfg.DSN(),
	)
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	err := os.MkdirAll(envDir, 0750)
	require.NoError(t, err)

	// Env vars carry the UTL_AGGREGATOR prefix and override the file
	envFile := filepath.Join(envDir, ".env")
	envContent := `UTL_AGGREGATOR_DEBUG=true
UTL_AGGREGATOR_RPC_URL=https://env-rpc.example.com
UTL_AGGREGATOR_CACHE_BACKEND=memory
UTL_AGGREGATOR_PROVIDERS_COINGECKO_API_KEY=env-key
`
	err = os.WriteFile(envFile, []byte(envContent), 0600)
	require.NoError(t, err)

	configPath := filepath.Join(tmpDir, "config.yaml")
	configFile := `
debug: false
rpc:
  url: "https://file-rpc.example.com"
cache:
  backend: file
`
	err = os.WriteFile(configPath, []byte(configFile), 0600)
	require.NoError(t, err)

	cfg, err := LoadAggregatorConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "https://env-rpc.example.com", cfg.RPC.URL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "env-key", cfg.Providers.CoinGecko.APIKey)
}
