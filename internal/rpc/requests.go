package rpc

import (
	"encoding/json"
	"strings"

	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
)

// Request is a single JSON-RPC 2.0 call. Requests are posted in batches
// (a JSON array) and responses correlate back by the echoed ID, which is
// always the mint address being queried.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Response is a single JSON-RPC 2.0 response entry
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Error   *Error          `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// HasResult reports whether the response carries a non-null result
func (r *Response) HasResult() bool {
	return len(r.Result) > 0 && string(r.Result) != "null"
}

// Error is a JSON-RPC error object
type Error struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Contains reports whether the error message or data contains the given substring
func (e *Error) Contains(s string) bool {
	if e == nil {
		return false
	}
	return strings.Contains(e.Message, s) || strings.Contains(string(e.Data), s)
}

// NewAccountInfoRequest builds a getAccountInfo call for a mint,
// requesting the parsed representation so the program owner, account
// type and decimals can be inspected.
func NewAccountInfoRequest(mint string) Request {
	return Request{
		JSONRPC: "2.0",
		ID:      mint,
		Method:  "getAccountInfo",
		Params: []interface{}{
			mint,
			map[string]interface{}{
				"encoding": "jsonParsed",
			},
		},
	}
}

// NewLatestSignatureRequest builds a getSignaturesForAddress call
// returning only the most recent signature for a mint
func NewLatestSignatureRequest(mint string) Request {
	return Request{
		JSONRPC: "2.0",
		ID:      mint,
		Method:  "getSignaturesForAddress",
		Params: []interface{}{
			mint,
			map[string]interface{}{
				"limit": 1,
			},
		},
	}
}

// NewHoldersRequest builds a getProgramAccounts call enumerating token
// accounts of a mint. The dataSlice keeps the response small; the result
// length is the holder count.
func NewHoldersRequest(mint string) Request {
	return Request{
		JSONRPC: "2.0",
		ID:      mint,
		Method:  "getProgramAccounts",
		Params: []interface{}{
			domain.TokenProgramID,
			map[string]interface{}{
				"encoding": "base64",
				"dataSlice": map[string]interface{}{
					"offset": 0,
					"length": 0,
				},
				"filters": []interface{}{
					map[string]interface{}{
						"dataSize": domain.TokenAccountDataSize,
					},
					map[string]interface{}{
						"memcmp": map[string]interface{}{
							"offset": 0,
							"bytes":  mint,
						},
					},
				},
			},
		},
	}
}

// accountInfoResult is the result shape of getAccountInfo
type accountInfoResult struct {
	Value *struct {
		Data json.RawMessage `json:"data"`
	} `json:"value"`
}

// parsedAccountData is the jsonParsed data of a token-mint account.
// Accounts the RPC node cannot parse carry a base64 tuple here instead,
// which fails to unmarshal and marks the account as not a mint.
type parsedAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Decimals int `json:"decimals"`
		} `json:"info"`
	} `json:"parsed"`
}

// ParseMintAccount extracts the decimals from a getAccountInfo response.
// Returns ok=false when the account exists but is not a token mint.
func ParseMintAccount(resp *Response) (decimals int, ok bool) {
	var result accountInfoResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return 0, false
	}
	if result.Value == nil {
		return 0, false
	}

	var data parsedAccountData
	if err := json.Unmarshal(result.Value.Data, &data); err != nil {
		return 0, false
	}
	if data.Program != domain.ProgramSPLToken && data.Program != domain.ProgramSPLToken2022 {
		return 0, false
	}
	if data.Parsed.Type != domain.AccountTypeMint {
		return 0, false
	}

	return data.Parsed.Info.Decimals, true
}

// SignatureEntry is one entry of a getSignaturesForAddress result
type SignatureEntry struct {
	BlockTime int64 `json:"blockTime"`
}

// ParseSignatures extracts the signature list from a response
func ParseSignatures(resp *Response) ([]SignatureEntry, error) {
	var entries []SignatureEntry
	if err := json.Unmarshal(resp.Result, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseHolderCount extracts the number of token accounts from a
// getProgramAccounts response
func ParseHolderCount(resp *Response) (int, error) {
	var accounts []json.RawMessage
	if err := json.Unmarshal(resp.Result, &accounts); err != nil {
		return 0, err
	}
	return len(accounts), nil
}
