package core

import "time"

// TradeDirection indicates which side of a pair the user is taking.
type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

// PendingTrade is a quoted swap awaiting user confirmation. A user holds at
// most one at a time: a new trade request overwrites the prior pending trade,
// it never queues behind it.
type PendingTrade struct {
	UserID    int64
	Quote     *Quote
	Direction TradeDirection
	Mint      string
	CreatedAt time.Time
}
