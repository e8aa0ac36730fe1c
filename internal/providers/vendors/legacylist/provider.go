// Package legacylist ingests the community-maintained legacy token list
// from its CDN snapshot. The list is unmoderated, so every candidate
// runs the full on-chain gauntlet: mint validation, recent-activity
// check and minimum holder count.
package legacylist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/logger"
	"github.com/solana-tokenlist/utl-aggregator/internal/rpc"
	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

const ProviderName = "legacy-list"

// DefaultBannedContent lists substrings that reject a candidate by name
// or symbol before any chain query is spent on it
var DefaultBannedContent = []string{
	"scam",
	"phishing",
	"please ignore",
}

// Options holds filtering parameters for the legacy list
type Options struct {
	// ChainID keeps only candidates of this network
	ChainID domain.ChainID

	// SkipTags drops candidates carrying any of these tags
	SkipTags []domain.Tag

	// SignatureMaxAge rejects mints without a signature newer than this
	SignatureMaxAge time.Duration

	// MinHolders rejects mints with fewer token accounts than this
	MinHolders int

	// BannedContent rejects candidates whose name or symbol contains any
	// of these substrings (case-insensitive)
	BannedContent []string

	// LargestMints bypass the holder query entirely
	LargestMints []string
}

// DefaultOptions returns the filtering defaults for mainnet
func DefaultOptions() Options {
	return Options{
		ChainID:         domain.ChainIDMainnet,
		SignatureMaxAge: 30 * 24 * time.Hour,
		MinHolders:      100,
		BannedContent:   DefaultBannedContent,
		LargestMints:    domain.DefaultLargestMints,
	}
}

// listToken is one entry of the upstream {tokens:[...]} document
type listToken struct {
	ChainID int          `json:"chainId"`
	Name    string       `json:"name"`
	Symbol  string       `json:"symbol"`
	LogoURI string       `json:"logoURI"`
	Tags    []domain.Tag `json:"tags"`
	Address string       `json:"address"`
}

// listDocument is the upstream token list document
type listDocument struct {
	Tokens []listToken `json:"tokens"`
}

// Provider implements providers.Provider for the legacy CDN token list
type Provider struct {
	url        string
	httpClient adapter.HTTPClient
	batcher    *rpc.Batcher
	opts       Options
}

// New creates a legacy-list provider
func New(url string, httpClient adapter.HTTPClient, batcher *rpc.Batcher, opts Options) *Provider {
	return &Provider{
		url:        url,
		httpClient: httpClient,
		batcher:    batcher,
		opts:       opts,
	}
}

// Name identifies the provider
func (p *Provider) Name() string {
	return ProviderName
}

// GetTokens fetches the list document and filters it down to live,
// sufficiently held token mints
func (p *Provider) GetTokens(ctx context.Context) (*tokenset.Set, error) {
	set := tokenset.New(ProviderName)

	var list listDocument
	if err := p.httpClient.Get(ctx, p.url, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch legacy token list: %w", err)
	}

	for _, entry := range list.Tokens {
		if domain.ChainID(entry.ChainID) != p.opts.ChainID {
			continue
		}

		token := &domain.Token{
			Address:  entry.Address,
			ChainID:  domain.ChainID(entry.ChainID),
			Name:     entry.Name,
			Symbol:   entry.Symbol,
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

	logger.Info("fetched legacy token list",
		zap.Int("candidates", set.Len()),
		zap.Int("chain_id", int(p.opts.ChainID)),
	)

	removeByContent(set, p.opts.BannedContent)

	if err := p.batcher.ValidateMints(ctx, set, p.opts.ChainID); err != nil {
		return nil, err
	}
	if err := p.batcher.FilterRecentActivity(ctx, set, p.opts.ChainID, p.opts.SignatureMaxAge); err != nil {
		return nil, err
	}
	if err := p.batcher.FilterHolders(ctx, set, p.opts.ChainID, p.opts.MinHolders, p.opts.LargestMints); err != nil {
		return nil, err
	}

	return set, nil
}

// removeByContent drops tokens whose name or symbol contains a banned
// substring. Runs before the chain filters so no RPC budget is wasted on
// obvious junk.
func removeByContent(set *tokenset.Set, banned []string) {
	for _, token := range set.Tokens() {
		name := strings.ToLower(token.Name)
		symbol := strings.ToLower(token.Symbol)
		for _, content := range banned {
			content = strings.ToLower(content)
			if strings.Contains(name, content) || strings.Contains(symbol, content) {
				logger.Debug("rejecting token by content",
					zap.String("mint", token.Address),
					zap.String("name", token.Name),
					zap.String("match", content),
				)
				set.DeleteByToken(token)
				break
			}
		}
	}
}
