package domain

const (
	// TokenProgramID is the SPL token program account owning all token accounts
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// TokenAccountDataSize is the byte size of an SPL token account,
	// used as a getProgramAccounts dataSize filter
	TokenAccountDataSize = 165

	// ProgramSPLToken and ProgramSPLToken2022 are the parsed program names
	// a valid mint account must be owned by
	ProgramSPLToken     = "spl-token"
	ProgramSPLToken2022 = "spl-token-2022"

	// AccountTypeMint is the parsed account type of a token mint
	AccountTypeMint = "mint"
)

// DefaultLargestMints lists mints with historically huge holder counts.
// Counting their holders times out on public RPC, so they bypass the
// holder query entirely. Overridable via the largest_mints config key.
var DefaultLargestMints = []string{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC
	"kinXdEcpDQeHPEuQnqmUgtYykqKGVFq6CeVX5iAHJq6",  // KIN
	"XzR7CUMqhDBzbAm4aUNvwhVCxjWGn1KEvqTp3Y8fFCD",  // SCAM
	"AFbX8oGjGpmVFywbVouvhQSRmiW2aR1mohfahi4Y2AdB", // GST
	"CKaKtYvz6dKPyMvYq9Rh3UBrnNqYZAyd7iF4hJtjUvks", // GARI
	"xxxxa1sKNGwFtw2kFn8XauW9xq8hBZ5kVtcSesTT9fW",  // SLIM
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", // USDT
	"7i5KKsX2weiTkry7jA4ZwSuXGhs5eJBEjY8vVxR4pfRx", // GMT
	"foodQJAztMzX1DKpLaiounNe2BDMds5RNuPC6jsNrDG",  // FOOD
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", // RAY
	"So11111111111111111111111111111111111111112",  // SOL
	"9LzCMqDgTKYz9Drzqnpgee3SGa89up3a247ypMj2xrqM", // AUDIO
}
