// Package trustedlist ingests a curated token list document verbatim.
// The list is fully trusted, so no on-chain filtering is applied; it is
// also the implementation used for ignore lists, whose entries are
// subtracted from the final aggregate.
package trustedlist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/logger"
	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

const ProviderName = "trusted-list"

// Options holds filtering parameters for a trusted list
type Options struct {
	// ChainID keeps only candidates of this network
	ChainID domain.ChainID

	// SkipTags drops candidates carrying any of these tags
	SkipTags []domain.Tag
}

// listToken is one entry of the upstream {tokens:[...]} document
type listToken struct {
	ChainID  int          `json:"chainId"`
	Name     string       `json:"name"`
	Symbol   string       `json:"symbol"`
	Decimals int          `json:"decimals"`
	LogoURI  string       `json:"logoURI"`
	Tags     []domain.Tag `json:"tags"`
	Address  string       `json:"address"`
}

// listDocument is the upstream token list document
type listDocument struct {
	Tokens []listToken `json:"tokens"`
}

// Provider implements providers.Provider for a curated token list URL
type Provider struct {
	name       string
	url        string
	httpClient adapter.HTTPClient
	opts       Options
}

// New creates a trusted-list provider. The name distinguishes multiple
// trusted lists (and ignore lists) in logs and error messages.
func New(name string, url string, httpClient adapter.HTTPClient, opts Options) *Provider {
	if name == "" {
		name = ProviderName
	}
	return &Provider{
		name:       name,
		url:        url,
		httpClient: httpClient,
		opts:       opts,
	}
}

// Name identifies the provider
func (p *Provider) Name() string {
	return p.name
}

// GetTokens fetches the curated list document
func (p *Provider) GetTokens(ctx context.Context) (*tokenset.Set, error) {
	set := tokenset.New(p.name)

	var list listDocument
	if err := p.httpClient.Get(ctx, p.url, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch trusted token list: %w", err)
	}

	for _, entry := range list.Tokens {
		if domain.ChainID(entry.ChainID) != p.opts.ChainID {
			continue
		}

		decimals := entry.Decimals
		token := &domain.Token{
			Address:  entry.Address,
			ChainID:  domain.ChainID(entry.ChainID),
			Name:     entry.Name,
			Symbol:   entry.Symbol,
			Decimals: &decimals,
			Tags:     domain.NewTagSet(entry.Tags...),
			Verified: true,
		}
		if entry.LogoURI != "" {
			logo := entry.LogoURI
			token.LogoURI = &logo
		}

		if token.HasAnyTag(p.opts.SkipTags) {
			continue
		}

		set.Set(token)
	}

	logger.Info("fetched trusted token list",
		zap.String("source", p.name),
		zap.String("url", p.url),
		zap.Int("tokens", set.Len()),
		zap.Int("chain_id", int(p.opts.ChainID)),
	)

	return set, nil
}
