package core

import "errors"

var (
	// ErrInvalidInput marks a request rejected by local validation before
	// any network call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable marks a transport or HTTP failure talking to
	// an external service.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidResponse marks a malformed payload from an external service.
	ErrInvalidResponse = errors.New("invalid upstream response")

	// ErrNoRoute is returned when the aggregator reports no viable swap
	// path for a pair.
	ErrNoRoute = errors.New("no route for pair")

	// ErrQuoteExpired is returned when a quote's validity window has
	// elapsed; the caller must re-quote, never retry with the same quote.
	ErrQuoteExpired = errors.New("quote expired")

	// ErrTransactionRejected is returned when the ledger reports the
	// transaction included with an execution error. Final, no retry.
	ErrTransactionRejected = errors.New("transaction rejected on-chain")

	// ErrConfirmationTimeout is returned when the blockhash validity
	// window elapsed with no inclusion observed. The outcome is
	// indeterminate: the transaction may still have landed.
	ErrConfirmationTimeout = errors.New("confirmation timed out")

	// ErrInvalidKeyFormat is returned when a secret key cannot be decoded
	// or does not reconstruct a keypair.
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrInvalidMnemonic is returned when a recovery phrase fails checksum
	// validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrNoActiveWallet is returned when an operation requires a connected
	// wallet and the session has none.
	ErrNoActiveWallet = errors.New("no active wallet")

	// ErrNoPendingTrade is returned when a confirmation arrives with no
	// trade awaiting it.
	ErrNoPendingTrade = errors.New("no pending trade")

	// ErrPriceUnavailable is returned when the oracle has no price for a
	// mint.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrAlertNotFound is returned for an unknown or foreign alert id.
	ErrAlertNotFound = errors.New("alert not found")
)
