package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
)

// Client defines the interface for batched Solana JSON-RPC calls to enable mocking
//
//go:generate mockgen -source=client.go -destination=../mocks/rpc_client.go -package=mocks -mock_names=Client=MockRPCClient
type Client interface {
	// Batch posts the requests as a single JSON-RPC batch and returns
	// the per-entry responses. The response order is not guaranteed to
	// match the request order; correlate by Response.ID.
	Batch(ctx context.Context, reqs []Request) ([]Response, error)
}

// HTTPClient implements Client against an HTTP JSON-RPC endpoint
type HTTPClient struct {
	httpClient adapter.HTTPClient
	url        string
}

// NewHTTPClient creates a new JSON-RPC client for the given endpoint
func NewHTTPClient(httpClient adapter.HTTPClient, url string) Client {
	return &HTTPClient{
		httpClient: httpClient,
		url:        url,
	}
}

// Batch posts the requests as a single JSON-RPC batch
func (c *HTTPClient) Batch(ctx context.Context, reqs []Request) ([]Response, error) {
	respBody, err := c.httpClient.PostJSON(ctx, c.url, reqs)
	if err != nil {
		return nil, fmt.Errorf("rpc batch failed: %w", err)
	}

	var responses []Response
	if err := json.Unmarshal(respBody, &responses); err != nil {
		return nil, fmt.Errorf("failed to decode rpc batch response: %w", err)
	}

	return responses, nil
}
