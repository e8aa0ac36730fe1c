// Package coingecko pulls the CoinGecko coin listing, keeps the entries
// with a Solana platform address, validates them on-chain and enriches
// them with logos from the per-contract endpoint.
package coingecko

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/logger"
	"github.com/solana-tokenlist/utl-aggregator/internal/rpc"
	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

const (
	ProviderName = "coingecko"

	apiURL    = "https://api.coingecko.com/api/v3"
	apiProURL = "https://pro-api.coingecko.com/api/v3"
)

// Options holds CoinGecko-specific throttling parameters
type Options struct {
	// BatchDetails is the number of concurrent per-contract detail requests
	BatchDetails int

	// ThrottleDetails is slept after every detail batch; the public API
	// tier is heavily rate limited
	ThrottleDetails time.Duration
}

// DefaultOptions returns the throttling defaults for the free API tier
func DefaultOptions() Options {
	return Options{
		BatchDetails:    50,
		ThrottleDetails: time.Minute,
	}
}

// simpleCoin is one entry of the /coins/list listing
type simpleCoin struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Platforms struct {
		Solana string `json:"solana"`
	} `json:"platforms"`
}

// coinContract is the response of /coins/solana/contract/{mint}
type coinContract struct {
	ID    string `json:"id"`
	Image struct {
		Large string `json:"large"`
	} `json:"image"`
}

// Provider implements providers.Provider for the CoinGecko listing API
type Provider struct {
	apiKey     string
	httpClient adapter.HTTPClient
	batcher    *rpc.Batcher
	clock      adapter.Clock
	opts       Options
}

// New creates a CoinGecko provider. A non-empty apiKey switches to the
// pro API host.
func New(apiKey string, httpClient adapter.HTTPClient, batcher *rpc.Batcher, clock adapter.Clock, opts Options) *Provider {
	if opts.BatchDetails <= 0 {
		opts.BatchDetails = 50
	}
	return &Provider{
		apiKey:     apiKey,
		httpClient: httpClient,
		batcher:    batcher,
		clock:      clock,
		opts:       opts,
	}
}

// Name identifies the provider
func (p *Provider) Name() string {
	return ProviderName
}

// GetTokens fetches the coin listing, validates the mints on-chain and
// enriches survivors with logos
func (p *Provider) GetTokens(ctx context.Context) (*tokenset.Set, error) {
	set := tokenset.New(ProviderName)

	var coins []simpleCoin
	if err := p.httpClient.Get(ctx, p.endpoint("/coins/list?include_platform=true"), &coins); err != nil {
		return nil, fmt.Errorf("failed to fetch coin listing: %w", err)
	}

	for _, coin := range coins {
		if coin.Platforms.Solana == "" {
			continue
		}

		set.Set(&domain.Token{
			Address:  coin.Platforms.Solana,
			ChainID:  domain.ChainIDMainnet,
			Name:     coin.Name,
			Symbol:   strings.ToUpper(coin.Symbol),
			Tags:     domain.NewTagSet(),
			Verified: true,
			Extensions: map[string]string{
				"coingeckoId": coin.ID,
			},
		})
	}

	logger.Info("fetched coingecko listing", zap.Int("candidates", set.Len()))

	if err := p.batcher.ValidateMints(ctx, set, domain.ChainIDMainnet); err != nil {
		return nil, err
	}

	if err := p.fetchLogos(ctx, set); err != nil {
		return nil, err
	}

	return set, nil
}

// logoResult carries the logo fetched for a single mint
type logoResult struct {
	mint string
	logo string
}

// fetchLogos pulls the per-contract detail record for every surviving
// mint. The endpoint re-cases the contract address in its response body,
// so the mint is always taken from the request side, never from the
// echoed payload.
func (p *Provider) fetchLogos(ctx context.Context, set *tokenset.Set) error {
	pool := pond.NewResultPool[*logoResult](p.opts.BatchDetails)
	defer pool.StopAndWait()

	chunks := chunkStrings(set.Mints(), p.opts.BatchDetails)
	for i, batch := range chunks {
		logger.Debug("fetching coingecko logos",
			zap.Int("batch", i+1),
			zap.Int("batches", len(chunks)),
		)

		tasks := make([]pond.Result[*logoResult], 0, len(batch))
		for _, mint := range batch {
			mint := mint
			tasks = append(tasks, pool.SubmitErr(func() (*logoResult, error) {
				if mint == "" {
					return nil, domain.ErrNoMintAddress
				}

				var contract coinContract
				url := p.endpoint(fmt.Sprintf("/coins/solana/contract/%s", mint))
				if err := p.httpClient.Get(ctx, url, &contract); err != nil {
					return nil, fmt.Errorf("failed to fetch contract details for %s: %w", mint, err)
				}

				return &logoResult{mint: mint, logo: contract.Image.Large}, nil
			}))
		}

		for _, task := range tasks {
			result, err := task.Wait()
			if err != nil {
				return err
			}

			if token := set.GetByMint(result.mint, domain.ChainIDMainnet); token != nil && result.logo != "" {
				logo := result.logo
				token.LogoURI = &logo
			}
		}

		if p.opts.ThrottleDetails > 0 {
			p.clock.Sleep(p.opts.ThrottleDetails)
		}
	}

	return nil
}

// endpoint builds an API URL, appending the pro API key when configured
func (p *Provider) endpoint(path string) string {
	if p.apiKey == "" {
		return apiURL + path
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s%sx_cg_pro_api_key=%s", apiProURL, path, separator, p.apiKey)
}

func chunkStrings(items []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
