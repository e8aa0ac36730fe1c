// Package generator orchestrates the concurrent source fetches and
// merges their results into the final token set.
package generator

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/logger"
	"github.com/solana-tokenlist/utl-aggregator/internal/providers"
	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

// Generator combines the token sets of the configured standard sources
// and subtracts everything found by the ignore sources.
type Generator struct {
	standard []providers.Provider
	ignore   []providers.Provider
	clock    adapter.Clock
}

// New creates a generator over the given source lists. Configuration
// order of the standard sources determines merge precedence.
func New(standard []providers.Provider, ignore []providers.Provider, clock adapter.Clock) *Generator {
	return &Generator{
		standard: standard,
		ignore:   ignore,
		clock:    clock,
	}
}

// fetchResult is the outcome of one source fetch
type fetchResult struct {
	name string
	set  *tokenset.Set
	err  error
}

// GenerateTokens fetches all sources and returns the merged aggregate.
//
// The join is all-or-nothing: if any source fails, the whole run fails.
// All failures are logged before the first is returned, so a run with
// several broken upstreams surfaces every one of them.
func (g *Generator) GenerateTokens(ctx context.Context) (*tokenset.Set, error) {
	aggregate := tokenset.New("aggregate")

	results := fetchAll(ctx, g.standard)
	if err := firstFailure(results); err != nil {
		return nil, fmt.Errorf("standard source fetch failed: %w", err)
	}
	for _, result := range results {
		upsertTokens(aggregate, result.set)
		logger.Info("merged standard source",
			zap.String("source", result.name),
			zap.Int("tokens", result.set.Len()),
			zap.Int("aggregate", aggregate.Len()),
		)
	}

	resultsIgnore := fetchAll(ctx, g.ignore)
	if err := firstFailure(resultsIgnore); err != nil {
		return nil, fmt.Errorf("ignore source fetch failed: %w", err)
	}
	for _, result := range resultsIgnore {
		removeTokens(aggregate, result.set)
		logger.Info("subtracted ignore source",
			zap.String("source", result.name),
			zap.Int("tokens", result.set.Len()),
			zap.Int("aggregate", aggregate.Len()),
		)
	}

	return aggregate, nil
}

// fetchAll invokes every source concurrently and collects all outcomes,
// preserving configuration order
func fetchAll(ctx context.Context, sources []providers.Provider) []*fetchResult {
	if len(sources) == 0 {
		return nil
	}

	pool := pond.NewResultPool[*fetchResult](len(sources))
	defer pool.StopAndWait()

	tasks := make([]pond.Result[*fetchResult], 0, len(sources))
	for _, source := range sources {
		source := source
		tasks = append(tasks, pool.Submit(func() *fetchResult {
			set, err := source.GetTokens(ctx)
			return &fetchResult{name: source.Name(), set: set, err: err}
		}))
	}

	results := make([]*fetchResult, 0, len(tasks))
	for _, task := range tasks {
		// Submit tasks never fail themselves; failures travel in the result
		result, _ := task.Wait()
		results = append(results, result)
	}
	return results
}

// firstFailure logs every failed fetch and returns the first one
func firstFailure(results []*fetchResult) error {
	var first error
	for _, result := range results {
		if result.err == nil {
			continue
		}
		logger.Error(result.err, zap.String("source", result.name))
		if first == nil {
			first = fmt.Errorf("source %s: %w", result.name, result.err)
		}
	}
	return first
}

// upsertTokens merges a source's set into the aggregate. A field already
// present on the aggregate record is never overwritten; an absent field
// is filled by the first source that provides it.
func upsertTokens(aggregate *tokenset.Set, incoming *tokenset.Set) {
	for _, token := range incoming.Tokens() {
		if token.LogoURI != nil {
			token.LogoURI = SanitizeURL(*token.LogoURI)
		}

		current := aggregate.GetByToken(token)
		if current == nil {
			aggregate.Set(token)
			continue
		}

		if current.Decimals == nil && token.Decimals != nil {
			current.Decimals = token.Decimals
		}
		if current.LogoURI == nil && token.LogoURI != nil {
			current.LogoURI = token.LogoURI
		}
		if len(current.Tags) == 0 && len(token.Tags) > 0 {
			current.Tags = token.Tags
		}
		if current.Holders == nil && token.Holders != nil {
			current.Holders = token.Holders
		}
	}
}

// removeTokens deletes every key of an ignore source's set from the aggregate
func removeTokens(aggregate *tokenset.Set, incoming *tokenset.Set) {
	for _, token := range incoming.Tokens() {
		aggregate.DeleteByToken(token)
	}
}

// SanitizeURL returns the URL if it parses with an http or https scheme,
// nil otherwise. Sanitizing an already-sanitized value is a no-op.
func SanitizeURL(raw string) *string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}

	sanitized := u.String()
	return &sanitized
}
