package generator

import (
	"context"
	"sort"
	"time"

	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
)

// TokenList is the published token list document
type TokenList struct {
	Name      string                `json:"name"`
	LogoURI   string                `json:"logoURI"`
	Keywords  []string              `json:"keywords"`
	Tags      map[string]TagDetails `json:"tags"`
	Timestamp string                `json:"timestamp"`
	Tokens    []TokenEntry          `json:"tokens"`
}

// TagDetails describes one entry of the document's tag dictionary
type TagDetails struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TokenEntry is one token record of the document. The embedded token's
// tag set is shadowed by a sorted slice so the output is deterministic.
type TokenEntry struct {
	domain.Token
	Tags []string `json:"tags"`
}

// knownTags is the tag dictionary published with every list
var knownTags = map[string]TagDetails{
	string(domain.TagLPToken): {
		Name:        "lp-token",
		Description: "Asset representing a share of a liquidity pool",
	},
	string(domain.TagJupiter): {
		Name:        "jupiter",
		Description: "Token listed by the Jupiter aggregator",
	},
	string(domain.TagVerified): {
		Name:        "verified",
		Description: "Token verified by its listing source",
	},
	string(domain.TagStrict): {
		Name:        "strict",
		Description: "Token on the Jupiter strict list",
	},
}

// GenerateTokenList runs the full aggregation and wraps the result in
// the published document format. Tokens are ordered by address and
// network so repeated runs over identical sources produce identical
// documents.
func (g *Generator) GenerateTokenList(ctx context.Context) (*TokenList, error) {
	set, err := g.GenerateTokens(ctx)
	if err != nil {
		return nil, err
	}

	tokens := set.Tokens()
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Address != tokens[j].Address {
			return tokens[i].Address < tokens[j].Address
		}
		return tokens[i].ChainID < tokens[j].ChainID
	})

	entries := make([]TokenEntry, 0, len(tokens))
	for _, token := range tokens {
		entries = append(entries, TokenEntry{
			Token: *token,
			Tags:  sortedTags(token.Tags),
		})
	}

	return &TokenList{
		Name:      "Solana Token List",
		LogoURI:   "",
		Keywords:  []string{"solana", "spl"},
		Tags:      knownTags,
		Timestamp: g.clock.Now().UTC().Format(time.RFC3339),
		Tokens:    entries,
	}, nil
}

func sortedTags(tags map[domain.Tag]struct{}) []string {
	sorted := make([]string, 0, len(tags))
	for tag := range tags {
		sorted = append(sorted, string(tag))
	}
	sort.Strings(sorted)
	return sorted
}
