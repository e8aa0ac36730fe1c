// Package providers defines the capability shared by every upstream
// origin of candidate token records.
package providers

import (
	"context"

	"github.com/solana-tokenlist/utl-aggregator/internal/tokenset"
)

// Provider produces a fully validated set of candidate token records
// from one upstream origin.
//
//go:generate mockgen -source=provider.go -destination=../mocks/provider.go -package=mocks -mock_names=Provider=MockProvider
type Provider interface {
	// Name identifies the provider in logs and error messages
	Name() string

	// GetTokens fetches, normalizes and validates the provider's
	// candidate records. It returns the full set or an error; there is
	// no partial emission.
	GetTokens(ctx context.Context) (*tokenset.Set, error)
}
