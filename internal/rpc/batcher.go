package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/cache"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
	"github.com/solana-tokenlist/utl-aggregator/internal/logger"
	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

const errExceededMaxLimit = "Exceeded max limit"

// BatcherOptions holds batching, throttling and caching parameters for
// on-chain queries
type BatcherOptions struct {
	// Throttle is slept after every batch to respect RPC rate limits
	Throttle time.Duration

	// BatchAccountsInfo is the number of getAccountInfo calls per batch request
	BatchAccountsInfo int

	// BatchSignatures is the number of getSignaturesForAddress calls per batch request
	BatchSignatures int

	// BatchTokenHolders is the number of concurrent getProgramAccounts
	// requests; kept small because this query is by far the most expensive
	BatchTokenHolders int

	// LargeHolderThreshold marks a mint as "large" in the cache so the
	// next run can skip its holder query
	LargeHolderThreshold int

	// LargeHolderCount is the holder count assumed for allow-listed mints
	// and for queries the RPC node refuses as too large
	LargeHolderCount int

	// CachePrefix scopes this batcher's cache keys to its source
	CachePrefix string
}

// DefaultBatcherOptions returns the defaults used by the curated-list source
func DefaultBatcherOptions(cachePrefix string) BatcherOptions {
	return BatcherOptions{
		Throttle:             0,
		BatchAccountsInfo:    250,
		BatchSignatures:      100,
		BatchTokenHolders:    5,
		LargeHolderThreshold: 1000,
		LargeHolderCount:     100000,
		CachePrefix:          cachePrefix,
	}
}

// Batcher validates and enriches token sets by querying the chain in
// bounded-size batches. Entries whose query produced no definitive
// answer are re-issued in a fresh pass until the context is cancelled;
// only definitive rejections remove a mint from the set.
type Batcher struct {
	client Client
	store  cache.Store
	clock  adapter.Clock
	opts   BatcherOptions
}

// NewBatcher creates a batcher over the given RPC client and cache store
func NewBatcher(client Client, store cache.Store, clock adapter.Clock, opts BatcherOptions) *Batcher {
	if opts.BatchAccountsInfo <= 0 {
		opts.BatchAccountsInfo = 250
	}
	if opts.BatchSignatures <= 0 {
		opts.BatchSignatures = 100
	}
	if opts.BatchTokenHolders <= 0 {
		opts.BatchTokenHolders = 5
	}
	if opts.LargeHolderThreshold <= 0 {
		opts.LargeHolderThreshold = 1000
	}
	if opts.LargeHolderCount <= 0 {
		opts.LargeHolderCount = 100000
	}
	return &Batcher{
		client: client,
		store:  store,
		clock:  clock,
		opts:   opts,
	}
}

// ValidateMints checks every mint in the set against the chain and fills
// in decimals. Accounts that are not token mints are removed; mints
// whose query errored or returned no result are retried.
func (b *Batcher) ValidateMints(ctx context.Context, set *tokenset.Set, chainID domain.ChainID) error {
	pending := set.Mints()

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		var retries []string
		chunks := chunkStrings(pending, b.opts.BatchAccountsInfo)
		for i, batch := range chunks {
			logger.Debug("validating mint accounts",
				zap.String("source", set.SourceName()),
				zap.Int("batch", i+1),
				zap.Int("batches", len(chunks)),
				zap.Int("chain_id", int(chainID)),
			)

			reqs := make([]Request, 0, len(batch))
			for _, mint := range batch {
				reqs = append(reqs, NewAccountInfoRequest(mint))
			}

			responses, err := b.client.Batch(ctx, reqs)
			if err != nil {
				return fmt.Errorf("account info batch failed: %w", err)
			}

			for i := range responses {
				resp := &responses[i]
				if resp.Error != nil || !resp.HasResult() {
					retries = append(retries, resp.ID)
					continue
				}

				decimals, ok := ParseMintAccount(resp)
				if !ok {
					set.DeleteByMint(resp.ID, chainID)
					continue
				}

				if token := set.GetByMint(resp.ID, chainID); token != nil {
					d := decimals
					token.Decimals = &d
				}
			}

			b.throttle()
		}

		if len(retries) > 0 {
			logger.Info("retrying indeterminate mint lookups",
				zap.String("source", set.SourceName()),
				zap.Int("mints", len(retries)),
				zap.Int("chain_id", int(chainID)),
			)
		}
		pending = retries
	}

	return nil
}

// FilterRecentActivity removes mints whose most recent signature is older
// than maxAge. Fresh results are cached per chain so warm runs skip the
// signature query for recently active mints.
func (b *Batcher) FilterRecentActivity(ctx context.Context, set *tokenset.Set, chainID domain.ChainID, maxAge time.Duration) error {
	cacheKey := b.recentSignaturesCacheKey(chainID)

	cached := make(map[string]int64)
	if err := b.store.Get(ctx, cacheKey, &cached); err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			return fmt.Errorf("failed to load recent signature cache: %w", err)
		}
		logger.Info("no cached recent signatures", zap.Int("chain_id", int(chainID)))
	} else {
		logger.Info("using cached recent signatures",
			zap.Int("entries", len(cached)),
			zap.Int("chain_id", int(chainID)),
		)
	}

	cutoff := b.clock.Now().Unix() - int64(maxAge.Seconds())

	var pending []string
	for _, mint := range set.Mints() {
		if blockTime, ok := cached[mint]; ok && blockTime > cutoff {
			continue
		}
		pending = append(pending, mint)
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		var retries []string
		chunks := chunkStrings(pending, b.opts.BatchSignatures)
		for i, batch := range chunks {
			logger.Debug("checking recent activity",
				zap.String("source", set.SourceName()),
				zap.Int("batch", i+1),
				zap.Int("batches", len(chunks)),
				zap.Int("chain_id", int(chainID)),
			)

			reqs := make([]Request, 0, len(batch))
			for _, mint := range batch {
				reqs = append(reqs, NewLatestSignatureRequest(mint))
			}

			responses, err := b.client.Batch(ctx, reqs)
			if err != nil {
				return fmt.Errorf("signature batch failed: %w", err)
			}

			for i := range responses {
				resp := &responses[i]
				if resp.Error != nil {
					set.DeleteByMint(resp.ID, chainID)
					continue
				}
				if !resp.HasResult() {
					retries = append(retries, resp.ID)
					continue
				}

				entries, err := ParseSignatures(resp)
				if err != nil || len(entries) == 0 || entries[0].BlockTime < cutoff {
					set.DeleteByMint(resp.ID, chainID)
					continue
				}

				cached[resp.ID] = entries[0].BlockTime
			}

			b.throttle()
		}

		if len(retries) > 0 {
			logger.Info("retrying indeterminate signature lookups",
				zap.String("source", set.SourceName()),
				zap.Int("mints", len(retries)),
				zap.Int("chain_id", int(chainID)),
			)
		}
		pending = retries
	}

	if err := b.store.Set(ctx, cacheKey, cached); err != nil {
		return fmt.Errorf("failed to save recent signature cache: %w", err)
	}

	return nil
}

// holderResult classifies a single holder-count query
type holderResult struct {
	mint  string
	count int
	retry bool
}

// FilterHolders removes mints with fewer than minHolders token accounts.
// Mints on the allow list or cached as large skip the expensive
// getProgramAccounts query. A query the RPC node rejects as exceeding its
// result-size limit counts as evidence of a very large holder count.
func (b *Batcher) FilterHolders(ctx context.Context, set *tokenset.Set, chainID domain.ChainID, minHolders int, allowList []string) error {
	cacheKey := b.largeMintsCacheKey(chainID)

	cachedLarge := make(map[string]int)
	if err := b.store.Get(ctx, cacheKey, &cachedLarge); err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			return fmt.Errorf("failed to load large mint cache: %w", err)
		}
		logger.Info("no cached large mints", zap.Int("chain_id", int(chainID)))
	} else {
		logger.Info("using cached large mints",
			zap.Int("entries", len(cachedLarge)),
			zap.Int("chain_id", int(chainID)),
		)
	}

	allowed := make(map[string]struct{}, len(allowList))
	for _, mint := range allowList {
		allowed[mint] = struct{}{}
	}

	var pending []string
	for _, mint := range set.Mints() {
		token := set.GetByMint(mint, chainID)
		if token == nil {
			continue
		}
		if _, ok := allowed[mint]; ok {
			count := b.opts.LargeHolderCount
			token.Holders = &count
			continue
		}
		if count, ok := cachedLarge[mint]; ok {
			c := count
			token.Holders = &c
			continue
		}
		pending = append(pending, mint)
	}

	pool := pond.NewResultPool[*holderResult](b.opts.BatchTokenHolders)
	defer pool.StopAndWait()

	cacheDirty := false

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		var retries []string
		chunks := chunkStrings(pending, b.opts.BatchTokenHolders)
		for i, batch := range chunks {
			logger.Debug("counting holders",
				zap.String("source", set.SourceName()),
				zap.Int("batch", i+1),
				zap.Int("batches", len(chunks)),
				zap.Int("chain_id", int(chainID)),
			)

			tasks := make([]pond.Result[*holderResult], 0, len(batch))
			for _, mint := range batch {
				mint := mint
				tasks = append(tasks, pool.SubmitErr(func() (*holderResult, error) {
					responses, err := b.client.Batch(ctx, []Request{NewHoldersRequest(mint)})
					if err != nil {
						return nil, err
					}
					if len(responses) == 0 {
						return &holderResult{mint: mint, retry: true}, nil
					}
					return b.classifyHolderResponse(&responses[0]), nil
				}))
			}

			for _, task := range tasks {
				result, err := task.Wait()
				if err != nil {
					return fmt.Errorf("holder query failed: %w", err)
				}

				if result.retry {
					retries = append(retries, result.mint)
					continue
				}

				if result.count < minHolders {
					logger.Debug("rejecting mint with too few holders",
						zap.String("mint", result.mint),
						zap.Int("holders", result.count),
						zap.Int("min_holders", minHolders),
					)
					set.DeleteByMint(result.mint, chainID)
					continue
				}

				if token := set.GetByMint(result.mint, chainID); token != nil {
					count := result.count
					token.Holders = &count
				}

				if result.count >= b.opts.LargeHolderThreshold {
					cachedLarge[result.mint] = result.count
					cacheDirty = true
				}
			}

			b.throttle()
		}

		if len(retries) > 0 {
			logger.Info("retrying indeterminate holder lookups",
				zap.String("source", set.SourceName()),
				zap.Int("mints", len(retries)),
				zap.Int("chain_id", int(chainID)),
			)
		}
		pending = retries
	}

	if cacheDirty {
		if err := b.store.Set(ctx, cacheKey, cachedLarge); err != nil {
			return fmt.Errorf("failed to save large mint cache: %w", err)
		}
	}

	return nil
}

// classifyHolderResponse maps a getProgramAccounts response onto
// accept/reject/retry
func (b *Batcher) classifyHolderResponse(resp *Response) *holderResult {
	if resp.Error != nil {
		// The node refusing to enumerate is itself evidence of a very
		// large holder count.
		if resp.Error.Contains(errExceededMaxLimit) {
			return &holderResult{mint: resp.ID, count: b.opts.LargeHolderCount}
		}
		logger.Warn("holder query returned error",
			zap.String("mint", resp.ID),
			zap.String("message", resp.Error.Message),
		)
		return &holderResult{mint: resp.ID, retry: true}
	}

	if !resp.HasResult() {
		return &holderResult{mint: resp.ID, retry: true}
	}

	count, err := ParseHolderCount(resp)
	if err != nil {
		return &holderResult{mint: resp.ID, retry: true}
	}

	return &holderResult{mint: resp.ID, count: count}
}

// ClearCache removes this batcher's cached chain-query results
func (b *Batcher) ClearCache(ctx context.Context, chainID domain.ChainID) error {
	if err := b.store.Delete(ctx, b.largeMintsCacheKey(chainID)); err != nil {
		return err
	}
	return b.store.Delete(ctx, b.recentSignaturesCacheKey(chainID))
}

func (b *Batcher) largeMintsCacheKey(chainID domain.ChainID) string {
	return fmt.Sprintf("%s-large-mints-%d", b.opts.CachePrefix, chainID)
}

func (b *Batcher) recentSignaturesCacheKey(chainID domain.ChainID) string {
	return fmt.Sprintf("%s-recent-signatures-%d", b.opts.CachePrefix, chainID)
}

func (b *Batcher) throttle() {
	if b.opts.Throttle > 0 {
		b.clock.Sleep(b.opts.Throttle)
	}
}

// chunkStrings splits items into slices of at most size entries
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
