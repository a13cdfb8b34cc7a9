package tradebot

import (
	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/storage"
)

// Option is a functional option for configuring a Bot instance.
type Option func(*Bot)

// WithLogger overrides the default logger.
func WithLogger(log core.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}

// WithStorage sets the wallet store. By default the bot opens the store at
// the configured path, or in memory when no path is set.
func WithStorage(wallets *storage.WalletStore) Option {
	return func(bot *Bot) {
		bot.wallets = wallets
	}
}

// WithLedger overrides the Solana RPC ledger.
func WithLedger(l core.Ledger) Option {
	return func(bot *Bot) {
		bot.ledger = l
	}
}

// WithAggregator overrides the swap aggregator, price oracle and token
// resolver together; the default Jupiter client serves all three.
func WithAggregator(aggregator core.Aggregator, oracle core.PriceOracle, tokens core.TokenResolver) Option {
	return func(bot *Bot) {
		bot.aggregator = aggregator
		bot.oracle = oracle
		bot.tokens = tokens
	}
}
