// Package tokenset holds the keyed record container shared by all
// providers and the generator. A set holds at most one token per
// (address, chain id) pair.
package tokenset

import (
	"fmt"
	"strings"

	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
)

// Set is a token container keyed by (address, chain id).
//
// A Set is exclusively owned by the provider that created it until its
// fetch returns, then by the generator. It is not safe for concurrent use.
type Set struct {
	source string
	byKey  map[string]*domain.Token
}

// New creates an empty set owned by the named source
func New(source string) *Set {
	return &Set{
		source: source,
		byKey:  make(map[string]*domain.Token),
	}
}

func tokenKey(mint string, chainID domain.ChainID) string {
	return fmt.Sprintf("%s:%d", mint, chainID)
}

func keyToMint(key string) string {
	return strings.SplitN(key, ":", 2)[0]
}

// SourceName returns the name of the source that produced this set
func (s *Set) SourceName() string {
	return s.source
}

// Len returns the number of tokens in the set
func (s *Set) Len() int {
	return len(s.byKey)
}

// Mints returns the mint addresses of all tokens in the set.
// Order is unspecified.
func (s *Set) Mints() []string {
	mints := make([]string, 0, len(s.byKey))
	for key := range s.byKey {
		mints = append(mints, keyToMint(key))
	}
	return mints
}

// Tokens returns all tokens in the set. Order is unspecified.
func (s *Set) Tokens() []*domain.Token {
	tokens := make([]*domain.Token, 0, len(s.byKey))
	for _, token := range s.byKey {
		tokens = append(tokens, token)
	}
	return tokens
}

// Set upserts a token by its (address, chain id) key
func (s *Set) Set(token *domain.Token) *Set {
	s.byKey[tokenKey(token.Address, token.ChainID)] = token
	return s
}

// HasByMint reports whether a token with the given mint and chain id exists
func (s *Set) HasByMint(mint string, chainID domain.ChainID) bool {
	_, ok := s.byKey[tokenKey(mint, chainID)]
	return ok
}

// HasByToken reports whether a token with the same key exists
func (s *Set) HasByToken(token *domain.Token) bool {
	return s.HasByMint(token.Address, token.ChainID)
}

// GetByMint returns the token with the given mint and chain id, or nil
func (s *Set) GetByMint(mint string, chainID domain.ChainID) *domain.Token {
	return s.byKey[tokenKey(mint, chainID)]
}

// GetByToken returns the stored token with the same key, or nil
func (s *Set) GetByToken(token *domain.Token) *domain.Token {
	return s.GetByMint(token.Address, token.ChainID)
}

// DeleteByMint removes the token with the given mint and chain id.
// Removing a missing key is a no-op.
func (s *Set) DeleteByMint(mint string, chainID domain.ChainID) bool {
	key := tokenKey(mint, chainID)
	if _, ok := s.byKey[key]; !ok {
		return false
	}
	delete(s.byKey, key)
	return true
}

// DeleteByToken removes the token with the same key.
// Removing a missing key is a no-op.
func (s *Set) DeleteByToken(token *domain.Token) bool {
	return s.DeleteByMint(token.Address, token.ChainID)
}
