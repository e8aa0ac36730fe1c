// Package jupiter ingests the Jupiter aggregator token list, a flat
// array document whose entries already carry on-chain decimals.
package jupiter

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/logger"
	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

const ProviderName = "jupiter"

// listToken is one entry of the upstream flat-array token list
type listToken struct {
	Address    string   `json:"address"`
	ChainID    int      `json:"chainId"`
	Name       string   `json:"name"`
	Symbol     string   `json:"symbol"`
	LogoURI    string   `json:"logoURI"`
	Tags       []string `json:"tags"`
	Decimals   int      `json:"decimals"`
	Extensions *struct {
		CoingeckoID string `json:"coingeckoId"`
	} `json:"extensions,omitempty"`
}

// Provider implements providers.Provider for the Jupiter token list
type Provider struct {
	url        string
	httpClient adapter.HTTPClient
}

// New creates a Jupiter provider
func New(url string, httpClient adapter.HTTPClient) *Provider {
	return &Provider{
		url:        url,
		httpClient: httpClient,
	}
}

// Name identifies the provider
func (p *Provider) Name() string {
	return ProviderName
}

// GetTokens fetches the Jupiter list document
func (p *Provider) GetTokens(ctx context.Context) (*tokenset.Set, error) {
	set := tokenset.New(ProviderName)

	var entries []listToken
	if err := p.httpClient.Get(ctx, p.url, &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch jupiter token list: %w", err)
	}

	for _, entry := range entries {
		tags := domain.NewTagSet(domain.TagJupiter)
		verified := false
		for _, tag := range entry.Tags {
			tags[domain.Tag(tag)] = struct{}{}
			if tag == string(domain.TagVerified) || tag == string(domain.TagStrict) {
				verified = true
			}
		}

		decimals := entry.Decimals
		token := &domain.Token{
			Address:  entry.Address,
			ChainID:  domain.ChainIDMainnet,
			Name:     entry.Name,
			Symbol:   strings.ToUpper(entry.Symbol),
			Decimals: &decimals,
			Tags:     tags,
			Verified: verified,
		}
		if entry.LogoURI != "" {
			logo := entry.LogoURI
			token.LogoURI = &logo
		}
		if entry.Extensions != nil && entry.Extensions.CoingeckoID != "" {
			token.Extensions = map[string]string{
				"coingeckoId": entry.Extensions.CoingeckoID,
			}
		}

		set.Set(token)
	}

	logger.Info("fetched jupiter token list", zap.Int("tokens", set.Len()))

	return set, nil
}
