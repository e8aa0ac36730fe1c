package generator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/generator"
	"github.com/solana-tokenlist/utl-aggregator/internal/mocks"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers"
	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

func stubProvider(ctrl *gomock.Controller, name string, set *tokenset.Set, err error) *mocks.MockProvider {
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Name().Return(name).AnyTimes()
	provider.EXPECT().GetTokens(gomock.Any()).Return(set, err)
	return provider
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestGenerator_FirstSourceWinsFillsGaps(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := tokenset.New("first")
	first.Set(&domain.Token{
		Address: "MintA",
		ChainID: domain.ChainIDMainnet,
		Name:    "First Name",
		Symbol:  "FST",
		LogoURI: strPtr("ftp://not-allowed/logo.png"),
	})

	second := tokenset.New("second")
	second.Set(&domain.Token{
		Address:  "MintA",
		ChainID:  domain.ChainIDMainnet,
		Name:     "Second Name",
		Symbol:   "SND",
		Decimals: intPtr(6),
		LogoURI:  strPtr("https://img.example.com/logo.png"),
		Tags:     domain.NewTagSet(domain.TagVerified),
		Holders:  intPtr(500),
	})

	gen := generator.New([]providers.Provider{
		stubProvider(ctrl, "first", first, nil),
		stubProvider(ctrl, "second", second, nil),
	}, nil, mocks.NewMockClock(ctrl))

	set, err := gen.GenerateTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	token := set.GetByMint("MintA", domain.ChainIDMainnet)
	require.NotNil(t, token)

	// Identity fields keep the first source's values
	assert.Equal(t, "First Name", token.Name)
	assert.Equal(t, "FST", token.Symbol)

	// Absent fields are filled by the first source that provides them;
	// the first source's ftp logo failed sanitization, so the second
	// source's https logo wins.
	require.NotNil(t, token.Decimals)
	assert.Equal(t, 6, *token.Decimals)
	require.NotNil(t, token.LogoURI)
	assert.Equal(t, "https://img.example.com/logo.png", *token.LogoURI)
	require.NotNil(t, token.Holders)
	assert.Equal(t, 500, *token.Holders)
	assert.True(t, token.HasTag(domain.TagVerified))
}

func TestGenerator_PresentFieldsAreNeverOverwritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := tokenset.New("first")
	first.Set(&domain.Token{
		Address:  "MintA",
		ChainID:  domain.ChainIDMainnet,
		Decimals: intPtr(9),
		LogoURI:  strPtr("https://first.example.com/logo.png"),
		Tags:     domain.NewTagSet(domain.TagLPToken),
		Holders:  intPtr(100),
	})

	second := tokenset.New("second")
	second.Set(&domain.Token{
		Address:  "MintA",
		ChainID:  domain.ChainIDMainnet,
		Decimals: intPtr(2),
		LogoURI:  strPtr("https://second.example.com/logo.png"),
		Tags:     domain.NewTagSet(domain.TagVerified),
		Holders:  intPtr(999),
	})

	gen := generator.New([]providers.Provider{
		stubProvider(ctrl, "first", first, nil),
		stubProvider(ctrl, "second", second, nil),
	}, nil, mocks.NewMockClock(ctrl))

	set, err := gen.GenerateTokens(context.Background())
	require.NoError(t, err)

	token := set.GetByMint("MintA", domain.ChainIDMainnet)
	require.NotNil(t, token)
	assert.Equal(t, 9, *token.Decimals)
	assert.Equal(t, "https://first.example.com/logo.png", *token.LogoURI)
	assert.Equal(t, 100, *token.Holders)
	assert.True(t, token.HasTag(domain.TagLPToken))
	assert.False(t, token.HasTag(domain.TagVerified))
}

func TestGenerator_IgnoreSourcesSubtract(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	standard := tokenset.New("standard")
	standard.Set(&domain.Token{Address: "Keep", ChainID: domain.ChainIDMainnet})
	standard.Set(&domain.Token{Address: "Drop", ChainID: domain.ChainIDMainnet})

	ignored := tokenset.New("ignore")
	ignored.Set(&domain.Token{Address: "Drop", ChainID: domain.ChainIDMainnet})
	// An ignore entry for a token nobody listed is harmless
	ignored.Set(&domain.Token{Address: "Unknown", ChainID: domain.ChainIDMainnet})

	gen := generator.New(
		[]providers.Provider{stubProvider(ctrl, "standard", standard, nil)},
		[]providers.Provider{stubProvider(ctrl, "ignore", ignored, nil)},
		mocks.NewMockClock(ctrl),
	)

	set, err := gen.GenerateTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.True(t, set.HasByMint("Keep", domain.ChainIDMainnet))
	assert.False(t, set.HasByMint("Drop", domain.ChainIDMainnet))
}

func TestGenerator_AnySourceFailureFailsTheRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	healthy := tokenset.New("healthy")
	healthy.Set(&domain.Token{Address: "MintA", ChainID: domain.ChainIDMainnet})

	gen := generator.New([]providers.Provider{
		stubProvider(ctrl, "healthy", healthy, nil),
		stubProvider(ctrl, "broken", nil, errors.New("upstream 500")),
	}, nil, mocks.NewMockClock(ctrl))

	set, err := gen.GenerateTokens(context.Background())
	assert.Nil(t, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "standard source fetch failed")
	assert.Contains(t, err.Error(), "broken")
}

func TestGenerator_IgnoreSourceFailureFailsTheRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	standard := tokenset.New("standard")
	standard.Set(&domain.Token{Address: "MintA", ChainID: domain.ChainIDMainnet})

	gen := generator.New(
		[]providers.Provider{stubProvider(ctrl, "standard", standard, nil)},
		[]providers.Provider{stubProvider(ctrl, "ignore", nil, errors.New("dns failure"))},
		mocks.NewMockClock(ctrl),
	)

	set, err := gen.GenerateTokens(context.Background())
	assert.Nil(t, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignore source fetch failed")
	assert.Contains(t, err.Error(), "ignore")
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *string
	}{
		{name: "https passes", raw: "https://example.com/a.png", expected: strPtr("https://example.com/a.png")},
		{name: "http passes", raw: "http://example.com/a.png", expected: strPtr("http://example.com/a.png")},
		{name: "ftp rejected", raw: "ftp://example.com/a.png", expected: nil},
		{name: "javascript rejected", raw: "javascript:alert(1)", expected: nil},
		{name: "relative path rejected", raw: "images/a.png", expected: nil},
		{name: "empty rejected", raw: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generator.SanitizeURL(tt.raw)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)

				// Sanitizing a sanitized value is a no-op
				again := generator.SanitizeURL(*got)
				require.NotNil(t, again)
				assert.Equal(t, *got, *again)
			}
		})
	}
}

func TestGenerator_GenerateTokenList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	set := tokenset.New("standard")
	set.Set(&domain.Token{
		Address:  "BBBB",
		ChainID:  domain.ChainIDMainnet,
		Symbol:   "BBB",
		Decimals: intPtr(6),
		Tags:     domain.NewTagSet(domain.TagVerified, domain.TagJupiter),
	})
	set.Set(&domain.Token{
		Address:  "AAAA",
		ChainID:  domain.ChainIDMainnet,
		Symbol:   "AAA",
		Decimals: intPtr(9),
	})

	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now)

	gen := generator.New([]providers.Provider{stubProvider(ctrl, "standard", set, nil)}, nil, clock)

	list, err := gen.GenerateTokenList(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Solana Token List", list.Name)
	assert.Equal(t, []string{"solana", "spl"}, list.Keywords)
	assert.Equal(t, "2024-05-01T12:30:00Z", list.Timestamp)
	assert.Contains(t, list.Tags, "verified")
	assert.Contains(t, list.Tags, "lp-token")

	// Deterministic ordering: tokens by address, tags sorted
	require.Len(t, list.Tokens, 2)
	assert.Equal(t, "AAAA", list.Tokens[0].Address)
	assert.Equal(t, "BBBB", list.Tokens[1].Address)
	assert.Equal(t, []string{"jupiter", "verified"}, list.Tokens[1].Tags)
}
