// Package core defines the domain model and the contracts between the bot
// components: wallet custody, quote aggregation, ledger access, price
// monitoring and user notification.
package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// Aggregator finds an optimal exchange route across liquidity venues and
// returns a priced quote and a ready-to-sign transaction payload.
type Aggregator interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error)
	SwapTransaction(ctx context.Context, quote *Quote, userPublicKey string, priorityFeeLamports uint64) ([]byte, error)
}

// PriceOracle resolves the current USD price of a token mint.
type PriceOracle interface {
	Price(ctx context.Context, mint string) (decimal.Decimal, error)
}

// TokenResolver resolves token metadata for a mint address.
type TokenResolver interface {
	TokenInfo(ctx context.Context, mint string) (TokenInfo, error)
}

// Ledger is the chain RPC surface used by the bot.
type Ledger interface {
	Balance(ctx context.Context, address string) (uint64, error)
	TokenAccounts(ctx context.Context, address string) ([]TokenBalance, error)
	// Submit sends a signed raw transaction with skip-preflight semantics
	// and returns its signature.
	Submit(ctx context.Context, rawTx []byte) (string, error)
	// LatestBlockhash returns the current blockhash and the last block
	// height at which a transaction built on it remains valid.
	LatestBlockhash(ctx context.Context) (blockhash string, lastValidBlockHeight uint64, err error)
	BlockHeight(ctx context.Context) (uint64, error)
	// SignatureStatus reports the ledger's view of a submitted
	// transaction. A nil status means the transaction is not yet known.
	SignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error)
}

// Notifier delivers a message to a single user.
type Notifier interface {
	Notify(userID int64, text string)
}

// TokenInfo is cached token metadata used for formatting and amount scaling.
type TokenInfo struct {
	Mint     string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// TokenBalance is a token holding owned by a wallet.
type TokenBalance struct {
	Mint     string
	Amount   float64
	Decimals int
}

// SignatureStatus is the ledger's confirmation view of a transaction.
type SignatureStatus struct {
	Slot      uint64
	Confirmed bool
	// ExecutionErr holds the on-chain execution error, if the transaction
	// was included but failed.
	ExecutionErr string
}

// Failed reports whether the transaction was included with an execution error.
func (s *SignatureStatus) Failed() bool {
	return s != nil && s.ExecutionErr != ""
}
