package coingecko_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-tokenlist/utl-aggregator/internal/cache"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/mocks"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers/vendors/coingecko"
	"github.com/solana-tokenlist/utl-aggregator/internal/rpc"
)

const coinListing = `[
	{"id": "usd-coin", "symbol": "usdc", "name": "USD Coin", "platforms": {"solana": "MintUSDC"}},
	{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "platforms": {}}
]`

func newTestBatcher(rpcClient rpc.Client, clock *mocks.MockClock) *rpc.Batcher {
	return rpc.NewBatcher(rpcClient, cache.NewMemoryStore(), clock, rpc.DefaultBatcherOptions(coingecko.ProviderName))
}

func TestProvider_GetTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	rpcClient := mocks.NewMockRPCClient(ctrl)
	clock := mocks.NewMockClock(ctrl)

	// Free tier: public host, no key in the URL
	httpClient.EXPECT().
		Get(gomock.Any(), "https://api.coingecko.com/api/v3/coins/list?include_platform=true", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, result interface{}) error {
			return json.Unmarshal([]byte(coinListing), result)
		})

	// Only the coin with a Solana platform address reaches validation
	rpcClient.EXPECT().
		Batch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, reqs []rpc.Request) ([]rpc.Response, error) {
			require.Len(t, reqs, 1)
			assert.Equal(t, "MintUSDC", reqs[0].ID)
			return []rpc.Response{{
				ID:     "MintUSDC",
				Result: json.RawMessage(`{"value":{"data":{"program":"spl-token","parsed":{"type":"mint","info":{"decimals":6}}}}}`),
			}}, nil
		})

	// The detail endpoint path carries the request-side mint; the echoed
	// body may re-case it, so only the path spelling matters
	httpClient.EXPECT().
		Get(gomock.Any(), "https://api.coingecko.com/api/v3/coins/solana/contract/MintUSDC", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, result interface{}) error {
			return json.Unmarshal([]byte(`{"id": "usd-coin", "image": {"large": "https://img.example.com/usdc.png"}}`), result)
		})

	provider := coingecko.New("", httpClient, newTestBatcher(rpcClient, clock), clock, coingecko.Options{
		BatchDetails: 50,
	})

	set, err := provider.GetTokens(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, set.Len())
	token := set.GetByMint("MintUSDC", domain.ChainIDMainnet)
	require.NotNil(t, token)
	assert.Equal(t, "USD Coin", token.Name)
	assert.Equal(t, "USDC", token.Symbol)
	assert.True(t, token.Verified)
	assert.Equal(t, "usd-coin", token.Extensions["coingeckoId"])
	require.NotNil(t, token.Decimals)
	assert.Equal(t, 6, *token.Decimals)
	require.NotNil(t, token.LogoURI)
	assert.Equal(t, "https://img.example.com/usdc.png", *token.LogoURI)
}

func TestProvider_GetTokens_ProHost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	rpcClient := mocks.NewMockRPCClient(ctrl)
	clock := mocks.NewMockClock(ctrl)

	// A configured key switches to the pro host and appends the key as a
	// query parameter
	httpClient.EXPECT().
		Get(gomock.Any(), "https://pro-api.coingecko.com/api/v3/coins/list?include_platform=true&x_cg_pro_api_key=test-key", gomock.Any()).
		Return(nil)

	provider := coingecko.New("test-key", httpClient, newTestBatcher(rpcClient, clock), clock, coingecko.DefaultOptions())

	set, err := provider.GetTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestProvider_GetTokens_DetailFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	rpcClient := mocks.NewMockRPCClient(ctrl)
	clock := mocks.NewMockClock(ctrl)

	httpClient.EXPECT().
		Get(gomock.Any(), "https://api.coingecko.com/api/v3/coins/list?include_platform=true", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, result interface{}) error {
			return json.Unmarshal([]byte(coinListing), result)
		})
	rpcClient.EXPECT().
		Batch(gomock.Any(), gomock.Any()).
		Return([]rpc.Response{{
			ID:     "MintUSDC",
			Result: json.RawMessage(`{"value":{"data":{"program":"spl-token","parsed":{"type":"mint","info":{"decimals":6}}}}}`),
		}}, nil)
	httpClient.EXPECT().
		Get(gomock.Any(), "https://api.coingecko.com/api/v3/coins/solana/contract/MintUSDC", gomock.Any()).
		Return(assert.AnError)

	provider := coingecko.New("", httpClient, newTestBatcher(rpcClient, clock), clock, coingecko.Options{BatchDetails: 50})

	set, err := provider.GetTokens(context.Background())
	assert.Nil(t, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch contract details for MintUSDC")
}
