package core

import (
	"encoding/json"
	"time"
)

// Quote is a priced swap route returned by the aggregator. It is immutable
// once returned and must not be reused after its validity window: callers
// re-quote instead of retrying with stale data.
type Quote struct {
	InputMint  string
	OutputMint string

	// InAmount and OutAmount are in the smallest unit of each asset.
	InAmount  uint64
	OutAmount uint64

	// MinOutAmount is the slippage-adjusted worst acceptable output.
	MinOutAmount uint64

	SlippageBps    int
	PriceImpactPct float64

	// Route is the aggregator's opaque route payload, replayed verbatim
	// when requesting the swap transaction.
	Route json.RawMessage

	FetchedAt  time.Time
	ValidUntil time.Time
}

// Expired reports whether the quote's validity window has elapsed.
func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ValidUntil)
}
