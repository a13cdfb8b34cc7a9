// Package swap turns an aggregator quote into a signed, submitted and
// confirmed (or distinctly failed) on-chain transaction. Each attempt is a
// small state machine so the retry and timeout policy stays inspectable:
//
//	Quoted -> Submitted -> Confirmed | Rejected | TimedOut
package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/jpillora/backoff"

	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/wallet"
)

// State is the position of a swap attempt in its lifecycle.
type State string

const (
	StateQuoted    State = "quoted"
	StateSubmitted State = "submitted"
	StateConfirmed State = "confirmed"
	StateRejected  State = "rejected"
	StateTimedOut  State = "timed_out"
)

// Receipt is the observable outcome of a swap attempt. Once a transaction
// has been submitted the signature is always present, even for TimedOut:
// a timeout is an indeterminate observation, not evidence of failure, and
// the chain may still include the transaction.
type Receipt struct {
	Signature string
	State     State
}

// Indeterminate reports whether funds may have moved without the executor
// observing inclusion.
func (r *Receipt) Indeterminate() bool {
	return r != nil && r.State == StateTimedOut
}

const (
	defaultSubmitRetries = 3
	defaultPollInterval  = 2 * time.Second
)

// Executor drives swap attempts against the aggregator and the ledger.
type Executor struct {
	aggregator core.Aggregator
	ledger     core.Ledger
	log        core.Logger

	submitRetries int
	pollInterval  time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithSubmitRetries bounds how many times a transient submission failure is
// retried.
func WithSubmitRetries(n int) Option {
	return func(e *Executor) { e.submitRetries = n }
}

// WithPollInterval sets the confirmation polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) { e.pollInterval = d }
}

// NewExecutor creates a swap executor.
func NewExecutor(aggregator core.Aggregator, ledger core.Ledger, log core.Logger, options ...Option) *Executor {
	executor := &Executor{
		aggregator:    aggregator,
		ledger:        ledger,
		log:           log,
		submitRetries: defaultSubmitRetries,
		pollInterval:  defaultPollInterval,
	}
	for _, option := range options {
		option(executor)
	}
	return executor
}

// Execute runs one swap attempt to completion. The caller must pass a
// context independent of the originating chat update: once the transaction
// is submitted the attempt runs to confirmation or timeout regardless of
// further user input.
//
// A nil receipt means the attempt failed before anything reached the chain.
// A non-nil receipt with a non-nil error is a post-submission failure whose
// classification is in the receipt state.
func (e *Executor) Execute(ctx context.Context, signer *wallet.Signer, quote *core.Quote, priorityFeeLamports uint64) (*Receipt, error) {
	// Step 1: build the unsigned transaction. An expired quote is a hard
	// stop; the caller re-quotes, we never silently reuse it.
	if quote.Expired(time.Now()) {
		return nil, fmt.Errorf("swap aborted: %w", core.ErrQuoteExpired)
	}

	rawTx, err := e.aggregator.SwapTransaction(ctx, quote, signer.Address(), priorityFeeLamports)
	if err != nil {
		return nil, fmt.Errorf("failed to build swap transaction: %w", err)
	}

	// Step 2: sign locally. Secret material stays inside the process.
	signedTx, err := e.sign(rawTx, signer)
	if err != nil {
		return nil, err
	}

	// The blockhash validity ceiling is fetched at submission time and is
	// the only confirmation deadline; wall-clock guesses are not used.
	_, lastValidHeight, err := e.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch validity window: %w", err)
	}

	// Step 3: submit with bounded retries for transient failures.
	signature, err := e.submit(ctx, signedTx)
	if err != nil {
		return nil, err
	}

	e.log.WithField("signature", signature).Info("swap submitted")

	// Step 4: poll for confirmation until the validity window closes.
	return e.confirm(ctx, signature, lastValidHeight)
}

func (e *Executor) sign(rawTx []byte, signer *wallet.Signer) ([]byte, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(rawTx))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable transaction payload: %v", core.ErrInvalidResponse, err)
	}

	if _, err := tx.Sign(signer.SignerFor); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}
	return signed, nil
}

// submit retries only plainly transient failures; a malformed transaction
// propagates immediately.
func (e *Executor) submit(ctx context.Context, signedTx []byte) (string, error) {
	retryDelay := &backoff.Backoff{
		Min: 250 * time.Millisecond,
		Max: 2 * time.Second,
	}

	var lastErr error
	for attempt := 1; attempt <= e.submitRetries; attempt++ {
		signature, err := e.ledger.Submit(ctx, signedTx)
		if err == nil {
			return signature, nil
		}
		if !errors.Is(err, core.ErrUpstreamUnavailable) {
			return "", fmt.Errorf("submission failed: %w", err)
		}

		lastErr = err
		e.log.WithError(err).Warnf("transient submission failure, attempt %d/%d", attempt, e.submitRetries)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryDelay.Duration()):
		}
	}
	return "", fmt.Errorf("submission failed after %d attempts: %w", e.submitRetries, lastErr)
}

func (e *Executor) confirm(ctx context.Context, signature string, lastValidHeight uint64) (*Receipt, error) {
	receipt := &Receipt{Signature: signature, State: StateSubmitted}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		status, err := e.ledger.SignatureStatus(ctx, signature)
		if err != nil {
			// An observation failure is not an outcome; keep
			// polling while the window is open.
			e.log.WithError(err).Warn("confirmation poll failed")
		} else if status != nil {
			if status.Failed() {
				receipt.State = StateRejected
				return receipt, fmt.Errorf("%w: %s", core.ErrTransactionRejected, status.ExecutionErr)
			}
			if status.Confirmed {
				receipt.State = StateConfirmed
				return receipt, nil
			}
		}

		height, err := e.ledger.BlockHeight(ctx)
		if err == nil && height > lastValidHeight {
			// The window closed with no inclusion observed. The
			// transaction may still have landed; the result stays
			// indeterminate, never collapsed into a rejection.
			receipt.State = StateTimedOut
			return receipt, core.ErrConfirmationTimeout
		}

		select {
		case <-ctx.Done():
			receipt.State = StateTimedOut
			return receipt, ctx.Err()
		case <-ticker.C:
		}
	}
}
