// Package ledger implements core.Ledger over the Solana JSON-RPC API.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/grokini/tradebot/core"
)

// submitMaxRetries is handed to the RPC node for its own resubmission; the
// caller-visible retry policy lives in the swap executor.
const submitMaxRetries uint = 3

// Solana talks to a Solana RPC node.
type Solana struct {
	client *rpc.Client
	log    core.Logger
}

// New creates a ledger client for the given RPC endpoint.
func New(rpcURL string, log core.Logger) *Solana {
	return &Solana{
		client: rpc.New(rpcURL),
		log:    log,
	}
}

// Balance returns the lamport balance of an address.
func (l *Solana) Balance(ctx context.Context, address string) (uint64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("%w: bad address: %v", core.ErrInvalidInput, err)
	}

	out, err := l.client.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("%w: getBalance: %v", core.ErrUpstreamUnavailable, err)
	}
	return out.Value, nil
}

// parsedTokenAccount is the jsonParsed shape of an SPL token account.
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				UIAmount float64 `json:"uiAmount"`
				Decimals int     `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// TokenAccounts returns the non-empty SPL token holdings of an address.
func (l *Solana) TokenAccounts(ctx context.Context, address string) ([]core.TokenBalance, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: bad address: %v", core.ErrInvalidInput, err)
	}

	programID := solana.TokenProgramID
	out, err := l.client.GetTokenAccountsByOwner(
		ctx,
		pubkey,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: getTokenAccountsByOwner: %v", core.ErrUpstreamUnavailable, err)
	}

	balances := make([]core.TokenBalance, 0, len(out.Value))
	for _, account := range out.Value {
		var parsed parsedTokenAccount
		if err := json.Unmarshal(account.Account.Data.GetRawJSON(), &parsed); err != nil {
			l.log.WithError(err).Warn("skipping unparsable token account")
			continue
		}
		if parsed.Parsed.Info.TokenAmount.UIAmount <= 0 {
			continue
		}
		balances = append(balances, core.TokenBalance{
			Mint:     parsed.Parsed.Info.Mint,
			Amount:   parsed.Parsed.Info.TokenAmount.UIAmount,
			Decimals: parsed.Parsed.Info.TokenAmount.Decimals,
		})
	}
	return balances, nil
}

// Submit sends a signed raw transaction with preflight skipped and returns
// its signature. Transient node failures are wrapped as
// core.ErrUpstreamUnavailable so callers can retry; anything else is final.
func (l *Solana) Submit(ctx context.Context, rawTx []byte) (string, error) {
	maxRetries := submitMaxRetries
	sig, err := l.client.SendRawTransactionWithOpts(ctx, rawTx, rpc.TransactionOpts{
		SkipPreflight: true,
		MaxRetries:    &maxRetries,
	})
	if err != nil {
		if isTransient(err) {
			return "", fmt.Errorf("%w: sendTransaction: %v", core.ErrUpstreamUnavailable, err)
		}
		return "", fmt.Errorf("sendTransaction: %w", err)
	}
	return sig.String(), nil
}

// LatestBlockhash returns the current blockhash and its validity ceiling.
func (l *Solana) LatestBlockhash(ctx context.Context) (string, uint64, error) {
	out, err := l.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return "", 0, fmt.Errorf("%w: getLatestBlockhash: %v", core.ErrUpstreamUnavailable, err)
	}
	return out.Value.Blockhash.String(), out.Value.LastValidBlockHeight, nil
}

// BlockHeight returns the node's current block height.
func (l *Solana) BlockHeight(ctx context.Context) (uint64, error) {
	height, err := l.client.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("%w: getBlockHeight: %v", core.ErrUpstreamUnavailable, err)
	}
	return height, nil
}

// SignatureStatus reports the confirmation state of a submitted transaction.
// A nil status with nil error means the ledger does not know the signature
// yet.
func (l *Solana) SignatureStatus(ctx context.Context, signature string) (*core.SignatureStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: bad signature: %v", core.ErrInvalidInput, err)
	}

	out, err := l.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: getSignatureStatuses: %v", core.ErrUpstreamUnavailable, err)
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}

	status := out.Value[0]
	result := &core.SignatureStatus{
		Slot: status.Slot,
		Confirmed: status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
	}
	if status.Err != nil {
		result.ExecutionErr = fmt.Sprintf("%v", status.Err)
	}
	return result, nil
}

// isTransient classifies node errors worth retrying: rate limits and
// transport-level failures.
func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "too many requests",
		"timeout", "deadline exceeded",
		"connection refused", "connection reset", "eof",
		"502", "503", "504",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
