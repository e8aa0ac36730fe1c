package trustedlist_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/mocks"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers/vendors/trustedlist"
)

const listURL = "https://example.com/trusted.tokenlist.json"

const listDocument = `{
	"tokens": [
		{"chainId": 101, "address": "MintA", "name": "Token A", "symbol": "AAA", "decimals": 6, "logoURI": "https://img.example.com/a.png", "tags": []},
		{"chainId": 101, "address": "MintB", "name": "Pool B", "symbol": "BBB", "decimals": 9, "tags": ["lp-token"]},
		{"chainId": 103, "address": "MintC", "name": "Devnet C", "symbol": "CCC", "decimals": 0, "tags": []}
	]
}`

func TestProvider_GetTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Get(gomock.Any(), listURL, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, result interface{}) error {
			return json.Unmarshal([]byte(listDocument), result)
		})

	provider := trustedlist.New("solflare", listURL, httpClient, trustedlist.Options{
		ChainID:  domain.ChainIDMainnet,
		SkipTags: []domain.Tag{domain.TagLPToken},
	})

	assert.Equal(t, "solflare", provider.Name())

	set, err := provider.GetTokens(context.Background())
	require.NoError(t, err)

	// MintB carries a skip tag, MintC is on another network
	require.Equal(t, 1, set.Len())
	token := set.GetByMint("MintA", domain.ChainIDMainnet)
	require.NotNil(t, token)
	assert.Equal(t, "Token A", token.Name)
	assert.True(t, token.Verified)

	// Curated lists are trusted for decimals; no chain query happens
	require.NotNil(t, token.Decimals)
	assert.Equal(t, 6, *token.Decimals)
	require.NotNil(t, token.LogoURI)
	assert.Equal(t, "https://img.example.com/a.png", *token.LogoURI)
}

func TestProvider_DefaultName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := trustedlist.New("", listURL, mocks.NewMockHTTPClient(ctrl), trustedlist.Options{})
	assert.Equal(t, trustedlist.ProviderName, provider.Name())
}

func TestProvider_GetTokens_FetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Get(gomock.Any(), listURL, gomock.Any()).
		Return(assert.AnError)

	provider := trustedlist.New("ignore-list", listURL, httpClient, trustedlist.Options{ChainID: domain.ChainIDMainnet})

	set, err := provider.GetTokens(context.Background())
	assert.Nil(t, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch trusted token list")
}
