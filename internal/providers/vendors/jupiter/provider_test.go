package jupiter_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/mocks"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers/vendors/jupiter"
)

const listURL = "https://tokens.example.com/tokens"

const listDocument = `[
	{"address": "MintA", "chainId": 101, "name": "Token A", "symbol": "aaa", "decimals": 6, "logoURI": "https://img.example.com/a.png", "tags": ["strict"], "extensions": {"coingeckoId": "token-a"}},
	{"address": "MintB", "chainId": 101, "name": "Token B", "symbol": "bbb", "decimals": 9, "tags": []}
]`

func TestProvider_GetTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Get(gomock.Any(), listURL, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, result interface{}) error {
			return json.Unmarshal([]byte(listDocument), result)
		})

	provider := jupiter.New(listURL, httpClient)
	set, err := provider.GetTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	strict := set.GetByMint("MintA", domain.ChainIDMainnet)
	require.NotNil(t, strict)
	assert.Equal(t, "AAA", strict.Symbol)
	assert.True(t, strict.Verified)
	assert.True(t, strict.HasTag(domain.TagJupiter))
	assert.True(t, strict.HasTag(domain.TagStrict))
	assert.Equal(t, "token-a", strict.Extensions["coingeckoId"])
	require.NotNil(t, strict.Decimals)
	assert.Equal(t, 6, *strict.Decimals)

	// Untagged entries are listed but not verified
	plain := set.GetByMint("MintB", domain.ChainIDMainnet)
	require.NotNil(t, plain)
	assert.False(t, plain.Verified)
	assert.True(t, plain.HasTag(domain.TagJupiter))
	assert.Nil(t, plain.LogoURI)
}

func TestProvider_GetTokens_FetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Get(gomock.Any(), listURL, gomock.Any()).
		Return(assert.AnError)

	provider := jupiter.New(listURL, httpClient)
	set, err := provider.GetTokens(context.Background())
	assert.Nil(t, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch jupiter token list")
}
