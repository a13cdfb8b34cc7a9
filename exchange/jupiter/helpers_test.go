package jupiter

import (
	"encoding/json"
	"time"

	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/logger/zerolog"
)

func testLogger() core.Logger {
	return zerolog.NewNop()
}

func freshQuote() *core.Quote {
	now := time.Now()
	return &core.Quote{
		InputMint:    wsolMint,
		OutputMint:   usdcMint,
		InAmount:     100000000,
		OutAmount:    15000000,
		MinOutAmount: 14850000,
		SlippageBps:  100,
		Route:        json.RawMessage(`{}`),
		FetchedAt:    now,
		ValidUntil:   now.Add(30 * time.Second),
	}
}

func staleQuote() *core.Quote {
	quote := freshQuote()
	quote.FetchedAt = time.Now().Add(-time.Minute)
	quote.ValidUntil = time.Now().Add(-30 * time.Second)
	return quote
}
