package domain

// ChainID identifies a Solana network.
type ChainID int

const (
	ChainIDMainnet ChainID = 101
	ChainIDTestnet ChainID = 102
	ChainIDDevnet  ChainID = 103
)

// IsValidChainID checks if a chain id is a known network
func IsValidChainID(chainID ChainID) bool {
	return chainID == ChainIDMainnet ||
		chainID == ChainIDTestnet ||
		chainID == ChainIDDevnet
}

// Tag classifies a token within a list
type Tag string

const (
	TagLPToken  Tag = "lp-token"
	TagJupiter  Tag = "jupiter"
	TagVerified Tag = "verified"
	TagStrict   Tag = "strict"
)

// Token represents a single token record keyed by (Address, ChainID).
//
// Decimals and Holders are nil until confirmed on-chain; LogoURI is nil
// when the upstream value is absent or fails sanitization.
type Token struct {
	Address    string            `json:"address"`
	ChainID    ChainID           `json:"chainId"`
	Name       string            `json:"name"`
	Symbol     string            `json:"symbol"`
	Decimals   *int              `json:"decimals"`
	LogoURI    *string           `json:"logoURI"`
	Tags       map[Tag]struct{}  `json:"-"`
	Verified   bool              `json:"verified"`
	Holders    *int              `json:"holders"`
	Extensions map[string]string `json:"extensions,omitempty"`
}

// HasTag reports whether the token carries the given tag
func (t *Token) HasTag(tag Tag) bool {
	_, ok := t.Tags[tag]
	return ok
}

// HasAnyTag reports whether the token carries any of the given tags
func (t *Token) HasAnyTag(tags []Tag) bool {
	for _, tag := range tags {
		if t.HasTag(tag) {
			return true
		}
	}
	return false
}

// NewTagSet builds a tag set from a slice of tags
func NewTagSet(tags ...Tag) map[Tag]struct{} {
	set := make(map[Tag]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}
