// Package tradebot wires the Telegram front end, the Jupiter aggregator, the
// Solana ledger, encrypted wallet storage and the price alert monitor into a
// running bot.
package tradebot

import (
	"context"
	"fmt"

	"github.com/grokini/tradebot/alert"
	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/exchange/jupiter"
	"github.com/grokini/tradebot/ledger"
	"github.com/grokini/tradebot/notification"
	"github.com/grokini/tradebot/session"
	"github.com/grokini/tradebot/storage"
	"github.com/grokini/tradebot/swap"
)

// Bot is the assembled trading bot.
type Bot struct {
	settings *core.Settings
	log      core.Logger

	sessions   *session.Store
	registry   *alert.Registry
	wallets    *storage.WalletStore
	aggregator core.Aggregator
	oracle     core.PriceOracle
	tokens     core.TokenResolver
	ledger     core.Ledger
	executor   *swap.Executor
	monitor    *alert.Monitor
	telegram   *notification.Telegram
}

// NewBot assembles a bot instance from the provided settings.
func NewBot(settings *core.Settings, options ...Option) (*Bot, error) {
	bot := &Bot{
		settings: settings,
		log:      DefaultLog,
		registry: alert.NewRegistry(),
	}

	for _, option := range options {
		option(bot)
	}

	bot.sessions = session.NewStore(core.UserSettings{
		SlippageBps:         settings.Jupiter.DefaultSlippageBps,
		PriorityFeeLamports: settings.Jupiter.PriorityFeeLamports,
		Notifications:       true,
	})

	if bot.aggregator == nil {
		client := jupiter.NewClient(settings.Jupiter, bot.log)
		bot.aggregator, bot.oracle, bot.tokens = client, client, client
	}
	if bot.ledger == nil {
		bot.ledger = ledger.New(settings.Solana.RPCURL, bot.log)
	}

	if bot.wallets == nil {
		var err error
		if settings.Storage.Path == "" {
			bot.wallets, err = storage.NewFromMemory()
		} else {
			bot.wallets, err = storage.NewFromFile(settings.Storage.Path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open wallet storage: %w", err)
		}
	}

	bot.executor = swap.NewExecutor(bot.aggregator, bot.ledger, bot.log)

	telegram, err := notification.NewTelegram(notification.Deps{
		Sessions:   bot.sessions,
		Registry:   bot.registry,
		Wallets:    bot.wallets,
		Executor:   bot.executor,
		Aggregator: bot.aggregator,
		Oracle:     bot.oracle,
		Tokens:     bot.tokens,
		Ledger:     bot.ledger,
	}, settings, bot.log)
	if err != nil {
		return nil, err
	}
	bot.telegram = telegram

	var monitorOptions []alert.MonitorOption
	if settings.Alerts.CheckInterval > 0 {
		monitorOptions = append(monitorOptions, alert.WithCheckInterval(settings.Alerts.CheckInterval))
	}
	bot.monitor = alert.NewMonitor(bot.registry, bot.sessions, bot.oracle, telegram, bot.tokens, bot.log, monitorOptions...)

	return bot, nil
}

// Run starts the Telegram poller and the alert monitor and blocks until the
// context is canceled, then shuts both down and wipes session key material.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot starting")

	b.monitor.Start(ctx)
	go b.telegram.Start()

	<-ctx.Done()

	b.log.Info("bot stopping")
	b.telegram.Stop()
	b.monitor.Stop()
	b.sessions.Teardown()

	if err := b.wallets.Close(); err != nil {
		return fmt.Errorf("failed to close wallet storage: %w", err)
	}
	return nil
}
