// Package notification is the Telegram front end: command parsing, the
// conversational input modes and outbound user notifications.
package notification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/grokini/tradebot/alert"
	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/session"
	"github.com/grokini/tradebot/storage"
	"github.com/grokini/tradebot/swap"
	"github.com/grokini/tradebot/wallet"
)

const (
	pollingTimeout = 10 * time.Second

	wsolMint    = "So11111111111111111111111111111111111111112"
	solDecimals = 9
)

// Base58 Solana addresses are 32 to 44 characters.
var (
	mintPattern = `[1-9A-HJ-NP-Za-km-z]{32,44}`

	buyRegexp         = regexp.MustCompile(`/buy\s+(?P<mint>` + mintPattern + `)\s+(?P<amount>\d+(?:\.\d+)?)`)
	sellRegexp        = regexp.MustCompile(`/sell\s+(?P<mint>` + mintPattern + `)\s+(?P<amount>\d+(?:\.\d+)?)(?P<percent>%)?`)
	priceRegexp       = regexp.MustCompile(`/price\s+(?P<mint>` + mintPattern + `)`)
	alertRegexp       = regexp.MustCompile(`/alert\s+(?P<mint>` + mintPattern + `)\s+(?P<direction>above|below)(?:\s+(?P<target>\d+(?:\.\d+)?))?`)
	removeAlertRegexp = regexp.MustCompile(`/removealert\s+(?P<id>\d+)`)
	slippageRegexp    = regexp.MustCompile(`/slippage\s+(?P<bps>\d+)`)
	notifyRegexp      = regexp.MustCompile(`/notifications\s+(?P<state>on|off)`)
)

// Telegram wires the bot's components to the Telegram chat surface. It
// implements core.Notifier for the alert monitor and the swap pipeline.
type Telegram struct {
	settings    *core.Settings
	sessions    *session.Store
	registry    *alert.Registry
	wallets     *storage.WalletStore
	executor    *swap.Executor
	aggregator  core.Aggregator
	oracle      core.PriceOracle
	tokens      core.TokenResolver
	ledger      core.Ledger
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         core.Logger
}

// Option configures a Telegram instance.
type Option func(telegram *Telegram)

// Deps carries the component graph the front end dispatches into.
type Deps struct {
	Sessions   *session.Store
	Registry   *alert.Registry
	Wallets    *storage.WalletStore
	Executor   *swap.Executor
	Aggregator core.Aggregator
	Oracle     core.PriceOracle
	Tokens     core.TokenResolver
	Ledger     core.Ledger
}

// NewTelegram creates and initializes the Telegram service.
func NewTelegram(deps Deps, settings *core.Settings, log core.Logger, options ...Option) (*Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: pollingTimeout}

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    poller,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		sessions:    deps.Sessions,
		registry:    deps.Registry,
		wallets:     deps.Wallets,
		executor:    deps.Executor,
		aggregator:  deps.Aggregator,
		oracle:      deps.Oracle,
		tokens:      deps.Tokens,
		ledger:      deps.Ledger,
		defaultMenu: menu,
		client:      client,
		log:         log,
	}

	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// setupKeyboard configures the reply keyboard layout.
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		walletBtn    = menu.Text("/wallet")
		balanceBtn   = menu.Text("/balance")
		portfolioBtn = menu.Text("/portfolio")
		priceBtn     = menu.Text("/price")
		alertsBtn    = menu.Text("/alerts")
		settingsBtn  = menu.Text("/settings")
	)

	menu.Reply(
		menu.Row(walletBtn, balanceBtn, portfolioBtn),
		menu.Row(priceBtn, alertsBtn, settingsBtn),
	)
}

// setupCommands configures available bot commands.
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/wallet", Description: "Show the active wallet"},
		{Text: "/create", Description: "Create a new wallet"},
		{Text: "/import", Description: "Import a wallet from a secret key"},
		{Text: "/restore", Description: "Restore a wallet from a recovery phrase"},
		{Text: "/export", Description: "Export the wallet secret key"},
		{Text: "/balance", Description: "SOL balance"},
		{Text: "/portfolio", Description: "Token holdings"},
		{Text: "/price", Description: "Token price lookup"},
		{Text: "/buy", Description: "Quote a buy: /buy <mint> <sol amount>"},
		{Text: "/sell", Description: "Quote a sell: /sell <mint> <amount>[%]"},
		{Text: "/confirm", Description: "Execute the pending trade"},
		{Text: "/cancel", Description: "Discard the pending trade"},
		{Text: "/alert", Description: "Price alert: /alert <mint> above|below <price>"},
		{Text: "/alerts", Description: "List price alerts"},
		{Text: "/removealert", Description: "Remove a price alert by id"},
		{Text: "/slippage", Description: "Set slippage tolerance in bps"},
		{Text: "/settings", Description: "Show trading preferences"},
	})
}

// registerHandlers registers all command handlers. Every command goes
// through the superseding wrapper; only the free-text handler consumes the
// input mode itself.
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/start", bot.command(bot.StartHandle))
	client.Handle("/help", bot.command(bot.HelpHandle))
	client.Handle("/wallet", bot.command(bot.WalletHandle))
	client.Handle("/create", bot.command(bot.CreateWalletHandle))
	client.Handle("/import", bot.command(bot.ImportHandle))
	client.Handle("/restore", bot.command(bot.RestoreHandle))
	client.Handle("/export", bot.command(bot.ExportHandle))
	client.Handle("/balance", bot.command(bot.BalanceHandle))
	client.Handle("/portfolio", bot.command(bot.PortfolioHandle))
	client.Handle("/price", bot.command(bot.PriceHandle))
	client.Handle("/buy", bot.command(bot.BuyHandle))
	client.Handle("/sell", bot.command(bot.SellHandle))
	client.Handle("/confirm", bot.command(bot.ConfirmHandle))
	client.Handle("/cancel", bot.command(bot.CancelHandle))
	client.Handle("/alert", bot.command(bot.AlertHandle))
	client.Handle("/alerts", bot.command(bot.AlertsHandle))
	client.Handle("/removealert", bot.command(bot.RemoveAlertHandle))
	client.Handle("/slippage", bot.command(bot.SlippageHandle))
	client.Handle("/notifications", bot.command(bot.NotificationsHandle))
	client.Handle("/settings", bot.command(bot.SettingsHandle))
	client.Handle(tb.OnText, bot.TextHandle)
}

// command discards any pending conversational input mode before dispatching:
// a new command supersedes the armed mode, so an unrelated message after
// /import can never be swallowed as a secret key.
func (t *Telegram) command(handler func(*tb.Message)) func(*tb.Message) {
	return func(m *tb.Message) {
		t.sessions.Get(m.Sender.ID).ConsumeInputMode()
		handler(m)
	}
}

// Start begins long polling. Blocks until Stop is called.
func (t *Telegram) Start() {
	t.client.Start()
}

// Stop halts long polling.
func (t *Telegram) Stop() {
	t.client.Stop()
}

// Notify sends a message to a single user, honoring their notification
// preference.
func (t *Telegram) Notify(userID int64, text string) {
	if !t.sessions.Get(userID).Settings().Notifications {
		return
	}
	t.send(&tb.User{ID: userID}, text)
}

func (t *Telegram) send(to *tb.User, text string, options ...any) {
	if _, err := t.client.Send(to, text, options...); err != nil {
		t.log.WithError(err).WithField("user_id", to.ID).Error("failed to send message")
	}
}

// Command handlers
// ----------------

func (t *Telegram) StartHandle(m *tb.Message) {
	t.sessions.Get(m.Sender.ID)
	t.send(m.Sender,
		"Welcome! I trade Solana tokens through the Jupiter aggregator.\n\n"+
			"Set up a wallet with /create, /import or /restore, then use "+
			"/buy and /sell to trade and /alert to watch prices.\n\n"+
			"Send /help for the full command list.",
		t.defaultMenu)
}

func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		t.send(m.Sender, "Could not load the command list, try again later.")
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}
	t.send(m.Sender, strings.Join(lines, "\n"))
}

func (t *Telegram) WalletHandle(m *tb.Message) {
	signer, err := t.signerFor(m.Sender.ID)
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}
	t.send(m.Sender, fmt.Sprintf("Active wallet:\n`%s`", signer.Address()))
}

func (t *Telegram) CreateWalletHandle(m *tb.Message) {
	signer, err := wallet.Generate()
	if err != nil {
		t.log.WithError(err).Error("wallet generation failed")
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	if err := t.wallets.Save(m.Sender.ID, signer, t.settings.Storage.Passphrase); err != nil {
		t.log.WithError(err).Error("wallet persistence failed")
		t.send(m.Sender, "Could not store the wallet, try again.")
		return
	}
	t.sessions.Get(m.Sender.ID).SetSigner(signer)

	t.send(m.Sender, fmt.Sprintf(
		"✅ Wallet created.\n\nAddress:\n`%s`\n\nRecovery phrase:\n`%s`\n\n"+
			"⚠️ Write the phrase down now. It is shown only once and anyone "+
			"holding it controls the funds.",
		signer.Address(), signer.RecoveryPhrase()))
}

func (t *Telegram) ImportHandle(m *tb.Message) {
	t.sessions.Get(m.Sender.ID).SetInputMode(session.ModeAwaitingSecretKey)
	t.send(m.Sender, "Send the base58 secret key as your next message. The message is deleted after import.")
}

func (t *Telegram) RestoreHandle(m *tb.Message) {
	t.sessions.Get(m.Sender.ID).SetInputMode(session.ModeAwaitingPhrase)
	t.send(m.Sender, "Send the recovery phrase as your next message. The message is deleted after import.")
}

func (t *Telegram) ExportHandle(m *tb.Message) {
	signer, err := t.signerFor(m.Sender.ID)
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}
	t.send(m.Sender, fmt.Sprintf(
		"⚠️ Secret key for `%s`:\n`%s`\n\nDelete this message once saved.",
		signer.Address(), signer.SecretKey()))
}

func (t *Telegram) BalanceHandle(m *tb.Message) {
	signer, err := t.signerFor(m.Sender.ID)
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	lamports, err := t.ledger.Balance(context.Background(), signer.Address())
	if err != nil {
		t.log.WithError(err).Error("balance lookup failed")
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	sol := decimal.NewFromUint64(lamports).Shift(-solDecimals)
	t.send(m.Sender, fmt.Sprintf("Balance: `%s SOL`", sol.String()))
}

func (t *Telegram) PortfolioHandle(m *tb.Message) {
	signer, err := t.signerFor(m.Sender.ID)
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	ctx := context.Background()
	holdings, err := t.ledger.TokenAccounts(ctx, signer.Address())
	if err != nil {
		t.log.WithError(err).Error("token accounts lookup failed")
		t.send(m.Sender, t.errorMessage(err))
		return
	}
	if len(holdings) == 0 {
		t.send(m.Sender, "No token holdings.")
		return
	}

	var sb strings.Builder
	sb.WriteString("*PORTFOLIO*\n")
	for _, holding := range holdings {
		sb.WriteString(fmt.Sprintf("%s: `%v`\n", t.tokenLabel(ctx, holding.Mint), holding.Amount))
	}
	t.send(m.Sender, sb.String())
}

func (t *Telegram) PriceHandle(m *tb.Message) {
	match := priceRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.sessions.Get(m.Sender.ID).SetInputMode(session.ModeAwaitingTokenAddress)
		t.send(m.Sender, "Send the token mint address as your next message.")
		return
	}
	t.replyPrice(m.Sender, extractCommandParams(priceRegexp, match)["mint"])
}

func (t *Telegram) replyPrice(to *tb.User, mint string) {
	ctx := context.Background()
	price, err := t.oracle.Price(ctx, mint)
	if err != nil {
		t.send(to, t.errorMessage(err))
		return
	}
	t.send(to, fmt.Sprintf("%s: `$%s`", t.tokenLabel(ctx, mint), price.String()))
}

func (t *Telegram) BuyHandle(m *tb.Message) {
	match := buyRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.send(m.Sender, "Invalid command.\nExample of usage:\n`/buy <mint> 0.5`\n(amount in SOL)")
		return
	}
	command := extractCommandParams(buyRegexp, match)

	amount, err := decimal.NewFromString(command["amount"])
	if err != nil || !amount.IsPositive() {
		t.send(m.Sender, "Invalid amount")
		return
	}

	lamports, err := rawUnits(amount, solDecimals)
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	t.quoteTrade(m.Sender, core.TradeBuy, command["mint"], lamports)
}

func (t *Telegram) SellHandle(m *tb.Message) {
	match := sellRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.send(m.Sender, "Invalid command.\nExamples of usage:\n`/sell <mint> 1000`\n\n`/sell <mint> 50%`")
		return
	}
	command := extractCommandParams(sellRegexp, match)

	amount, err := decimal.NewFromString(command["amount"])
	if err != nil || !amount.IsPositive() {
		t.send(m.Sender, "Invalid amount")
		return
	}

	signer, err := t.signerFor(m.Sender.ID)
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	ctx := context.Background()
	mint := command["mint"]

	raw, err := t.sellAmountRaw(ctx, signer.Address(), mint, amount, command["percent"] != "")
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	t.quoteTrade(m.Sender, core.TradeSell, mint, raw)
}

// sellAmountRaw converts a human sell amount, or a percentage of the held
// balance, into raw base units of the mint.
func (t *Telegram) sellAmountRaw(ctx context.Context, address, mint string, amount decimal.Decimal, percent bool) (uint64, error) {
	if percent {
		if amount.GreaterThan(decimal.NewFromInt(100)) {
			return 0, fmt.Errorf("%w: percentage above 100", core.ErrInvalidInput)
		}

		holdings, err := t.ledger.TokenAccounts(ctx, address)
		if err != nil {
			return 0, err
		}
		for _, holding := range holdings {
			if holding.Mint != mint {
				continue
			}
			held := decimal.NewFromFloat(holding.Amount).Shift(int32(holding.Decimals))
			return rawUnits(held.Mul(amount).Div(decimal.NewFromInt(100)), 0)
		}
		return 0, fmt.Errorf("%w: no balance for this token", core.ErrInvalidInput)
	}

	info, err := t.tokens.TokenInfo(ctx, mint)
	if err != nil {
		return 0, err
	}
	return rawUnits(amount, int32(info.Decimals))
}

var maxRawAmount = decimal.NewFromInt(math.MaxInt64)

// rawUnits converts a human amount into raw base units of a mint. Shifted
// values beyond the 63-bit amount range are rejected rather than allowed to
// wrap through the integer conversion.
func rawUnits(amount decimal.Decimal, decimals int32) (uint64, error) {
	shifted := amount.Shift(decimals).Truncate(0)
	if shifted.GreaterThan(maxRawAmount) {
		return 0, fmt.Errorf("%w: amount too large", core.ErrInvalidInput)
	}
	return uint64(shifted.IntPart()), nil
}

// quoteTrade fetches a fresh quote and parks it as the user's single pending
// trade, replacing any prior one.
func (t *Telegram) quoteTrade(sender *tb.User, direction core.TradeDirection, mint string, amount uint64) {
	userSession := t.sessions.Get(sender.ID)

	if _, err := t.signerFor(sender.ID); err != nil {
		t.send(sender, t.errorMessage(err))
		return
	}

	inputMint, outputMint := wsolMint, mint
	if direction == core.TradeSell {
		inputMint, outputMint = mint, wsolMint
	}

	ctx := context.Background()
	quote, err := t.aggregator.Quote(ctx, inputMint, outputMint, amount, userSession.Settings().SlippageBps)
	if err != nil {
		t.log.WithError(err).WithField("mint", mint).Error("quote failed")
		t.send(sender, t.errorMessage(err))
		return
	}

	userSession.SetPendingTrade(&core.PendingTrade{
		UserID:    sender.ID,
		Quote:     quote,
		Direction: direction,
		Mint:      mint,
		CreatedAt: time.Now(),
	})

	t.send(sender, t.formatQuoteMessage(ctx, direction, mint, quote))
}

func (t *Telegram) formatQuoteMessage(ctx context.Context, direction core.TradeDirection, mint string, quote *core.Quote) string {
	label := t.tokenLabel(ctx, mint)
	outLabel, outDecimals := label, 0
	if info, err := t.tokens.TokenInfo(ctx, quote.OutputMint); err == nil {
		outLabel, outDecimals = info.Symbol, info.Decimals
	}

	inAmount := decimal.NewFromUint64(quote.InAmount)
	outAmount := decimal.NewFromUint64(quote.OutAmount).Shift(-int32(outDecimals))
	minOut := decimal.NewFromUint64(quote.MinOutAmount).Shift(-int32(outDecimals))
	if quote.InputMint == wsolMint {
		inAmount = inAmount.Shift(-solDecimals)
	} else if info, err := t.tokens.TokenInfo(ctx, quote.InputMint); err == nil {
		inAmount = inAmount.Shift(-int32(info.Decimals))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s %s*\n-----\n", strings.ToUpper(string(direction)), label)
	fmt.Fprintf(&sb, "In: `%s`\n", inAmount.String())
	fmt.Fprintf(&sb, "Out: `%s %s`\n", outAmount.String(), outLabel)
	fmt.Fprintf(&sb, "Min out: `%s %s`\n", minOut.String(), outLabel)
	if quote.PriceImpactPct > 0 {
		fmt.Fprintf(&sb, "Price impact: `%.2f%%`\n", quote.PriceImpactPct)
	}
	sb.WriteString("-----\nSend /confirm to execute or /cancel to discard. Quotes expire quickly.")
	return sb.String()
}

func (t *Telegram) ConfirmHandle(m *tb.Message) {
	userSession := t.sessions.Get(m.Sender.ID)

	trade := userSession.TakePendingTrade()
	if trade == nil {
		t.send(m.Sender, t.errorMessage(core.ErrNoPendingTrade))
		return
	}

	signer, err := t.signerFor(m.Sender.ID)
	if err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}

	if trade.Quote.Expired(time.Now()) {
		t.send(m.Sender, t.errorMessage(core.ErrQuoteExpired))
		return
	}

	t.send(m.Sender, "⏳ Submitting swap...")

	// The swap outlives the chat update: once submitted it runs to
	// confirmation or timeout regardless of later user input.
	go func() {
		receipt, err := t.executor.Execute(context.Background(), signer, trade.Quote, userSession.Settings().PriorityFeeLamports)
		t.send(&tb.User{ID: m.Sender.ID}, t.formatReceiptMessage(receipt, err))
	}()
}

func (t *Telegram) formatReceiptMessage(receipt *swap.Receipt, err error) string {
	if err == nil {
		return fmt.Sprintf("✅ Swap confirmed.\nSignature:\n`%s`", receipt.Signature)
	}

	switch {
	case errors.Is(err, core.ErrConfirmationTimeout):
		return fmt.Sprintf(
			"⏳ Confirmation window elapsed before the network reported this "+
				"transaction. Funds may still have moved — check the signature "+
				"on an explorer before retrying.\nSignature:\n`%s`",
			receipt.Signature)
	case errors.Is(err, core.ErrTransactionRejected):
		return fmt.Sprintf("❌ Swap rejected by the network.\nSignature:\n`%s`\nNo tokens were exchanged.", receipt.Signature)
	default:
		return t.errorMessage(err)
	}
}

func (t *Telegram) CancelHandle(m *tb.Message) {
	if t.sessions.Get(m.Sender.ID).TakePendingTrade() == nil {
		t.send(m.Sender, t.errorMessage(core.ErrNoPendingTrade))
		return
	}
	t.send(m.Sender, "Pending trade discarded.")
}

func (t *Telegram) AlertHandle(m *tb.Message) {
	match := alertRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.send(m.Sender, "Invalid command.\nExample of usage:\n`/alert <mint> above 1.50`")
		return
	}
	command := extractCommandParams(alertRegexp, match)
	direction := core.AlertDirection(command["direction"])

	userSession := t.sessions.Get(m.Sender.ID)

	if command["target"] == "" {
		userSession.SetAlertDraft(session.AlertDraft{Mint: command["mint"], Direction: direction})
		userSession.SetInputMode(session.ModeAwaitingAlertTarget)
		t.send(m.Sender, "Send the target price as your next message.")
		return
	}

	target, err := decimal.NewFromString(command["target"])
	if err != nil {
		t.send(m.Sender, "Invalid target price")
		return
	}
	t.createAlert(m.Sender, command["mint"], direction, target)
}

func (t *Telegram) createAlert(sender *tb.User, mint string, direction core.AlertDirection, target decimal.Decimal) {
	created, err := t.registry.Create(sender.ID, mint, target, direction)
	if err != nil {
		t.send(sender, t.errorMessage(err))
		return
	}
	t.sessions.Get(sender.ID).AddAlert(created.ID)

	t.send(sender, fmt.Sprintf(
		"🔔 Alert #%d set: %s %s `%s`",
		created.ID, t.tokenLabel(context.Background(), mint), created.Direction, created.TargetPrice.String()))
}

func (t *Telegram) AlertsHandle(m *tb.Message) {
	alerts := t.registry.ByUser(m.Sender.ID)
	if len(alerts) == 0 {
		t.send(m.Sender, "No alerts set.")
		return
	}

	ctx := context.Background()
	var sb strings.Builder
	sb.WriteString("*ALERTS*\n")
	for _, a := range alerts {
		fmt.Fprintf(&sb, "#%d %s %s `%s`\n", a.ID, t.tokenLabel(ctx, a.Mint), a.Direction, a.TargetPrice.String())
	}
	t.send(m.Sender, sb.String())
}

func (t *Telegram) RemoveAlertHandle(m *tb.Message) {
	match := removeAlertRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.send(m.Sender, "Invalid command.\nExample of usage:\n`/removealert 3`")
		return
	}

	id, err := strconv.ParseInt(extractCommandParams(removeAlertRegexp, match)["id"], 10, 64)
	if err != nil {
		t.send(m.Sender, "Invalid alert id")
		return
	}

	if err := t.registry.Remove(m.Sender.ID, id); err != nil {
		t.send(m.Sender, t.errorMessage(err))
		return
	}
	t.sessions.Get(m.Sender.ID).RemoveAlert(id)
	t.send(m.Sender, fmt.Sprintf("Alert #%d removed.", id))
}

func (t *Telegram) SlippageHandle(m *tb.Message) {
	match := slippageRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.send(m.Sender, "Invalid command.\nExample of usage:\n`/slippage 100` (1%)")
		return
	}

	bps, err := strconv.Atoi(extractCommandParams(slippageRegexp, match)["bps"])
	if err != nil || bps < 1 || bps > 5000 {
		t.send(m.Sender, "Slippage must be between 1 and 5000 bps.")
		return
	}

	t.sessions.Get(m.Sender.ID).SetSlippageBps(bps)
	t.send(m.Sender, fmt.Sprintf("Slippage set to `%d bps`.", bps))
}

func (t *Telegram) NotificationsHandle(m *tb.Message) {
	match := notifyRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.send(m.Sender, "Invalid command.\nExample of usage:\n`/notifications off`")
		return
	}

	enabled := extractCommandParams(notifyRegexp, match)["state"] == "on"
	t.sessions.Get(m.Sender.ID).SetNotifications(enabled)

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	t.send(m.Sender, fmt.Sprintf("Notifications %s.", state))
}

func (t *Telegram) SettingsHandle(m *tb.Message) {
	settings := t.sessions.Get(m.Sender.ID).Settings()

	notifications := "on"
	if !settings.Notifications {
		notifications = "off"
	}

	t.send(m.Sender, fmt.Sprintf(
		"*SETTINGS*\nSlippage: `%d bps`\nPriority fee: `%d lamports`\nNotifications: `%s`",
		settings.SlippageBps, settings.PriorityFeeLamports, notifications))
}

// TextHandle consumes the armed input mode, if any. The mode resets before
// the input is validated, so a failed input never leaves the conversation
// stuck.
func (t *Telegram) TextHandle(m *tb.Message) {
	userSession := t.sessions.Get(m.Sender.ID)
	text := strings.TrimSpace(m.Text)

	switch userSession.ConsumeInputMode() {
	case session.ModeAwaitingSecretKey:
		t.deleteSecretMessage(m)
		t.connectWallet(m.Sender, func() (*wallet.Signer, error) { return wallet.FromSecretKey(text) })

	case session.ModeAwaitingPhrase:
		t.deleteSecretMessage(m)
		t.connectWallet(m.Sender, func() (*wallet.Signer, error) { return wallet.FromMnemonic(text) })

	case session.ModeAwaitingAlertTarget:
		draft, ok := userSession.TakeAlertDraft()
		if !ok {
			t.send(m.Sender, "No alert in progress, start with /alert.")
			return
		}
		target, err := decimal.NewFromString(text)
		if err != nil {
			t.send(m.Sender, "Invalid target price, start again with /alert.")
			return
		}
		t.createAlert(m.Sender, draft.Mint, draft.Direction, target)

	case session.ModeAwaitingTokenAddress:
		t.replyPrice(m.Sender, text)
	}
}

// deleteSecretMessage removes the chat message carrying key material.
func (t *Telegram) deleteSecretMessage(m *tb.Message) {
	if err := t.client.Delete(m); err != nil {
		t.log.WithError(err).Warn("failed to delete secret message")
	}
}

func (t *Telegram) connectWallet(sender *tb.User, build func() (*wallet.Signer, error)) {
	signer, err := build()
	if err != nil {
		t.send(sender, t.errorMessage(err))
		return
	}

	if err := t.wallets.Save(sender.ID, signer, t.settings.Storage.Passphrase); err != nil {
		t.log.WithError(err).Error("wallet persistence failed")
		t.send(sender, "Could not store the wallet, try again.")
		return
	}
	t.sessions.Get(sender.ID).SetSigner(signer)

	t.send(sender, fmt.Sprintf("✅ Wallet connected:\n`%s`", signer.Address()))
}

// Helper methods
// --------------

// signerFor returns the session's signer, lazily unsealing the stored wallet
// on first use after a restart.
func (t *Telegram) signerFor(userID int64) (*wallet.Signer, error) {
	userSession := t.sessions.Get(userID)
	if signer := userSession.Signer(); signer != nil {
		return signer, nil
	}

	records, err := t.wallets.List(userID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrNoActiveWallet
	}

	signer, err := t.wallets.Load(userID, records[0].Address, t.settings.Storage.Passphrase)
	if err != nil {
		return nil, err
	}
	userSession.SetSigner(signer)
	return signer, nil
}

func (t *Telegram) tokenLabel(ctx context.Context, mint string) string {
	if info, err := t.tokens.TokenInfo(ctx, mint); err == nil && info.Symbol != "" {
		return info.Symbol
	}
	return mint
}

// errorMessage maps component errors to user-facing copy.
func (t *Telegram) errorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrNoActiveWallet):
		return "No wallet connected. Use /create, /import or /restore first."
	case errors.Is(err, core.ErrInvalidKeyFormat):
		return "That does not look like a valid base58 secret key."
	case errors.Is(err, core.ErrInvalidMnemonic):
		return "That recovery phrase is invalid, check the words and try again."
	case errors.Is(err, core.ErrNoPendingTrade):
		return "Nothing to act on, quote a trade first with /buy or /sell."
	case errors.Is(err, core.ErrQuoteExpired):
		return "The quote expired. Request a fresh one with /buy or /sell."
	case errors.Is(err, core.ErrNoRoute):
		return "No swap route found for this pair and amount."
	case errors.Is(err, core.ErrPriceUnavailable):
		return "No price available for this token."
	case errors.Is(err, core.ErrAlertNotFound):
		return "No such alert."
	case errors.Is(err, core.ErrUpstreamUnavailable):
		return "Upstream service is unavailable, try again shortly."
	case errors.Is(err, core.ErrInvalidInput):
		return fmt.Sprintf("Invalid input: %v", err)
	default:
		return "Something went wrong, try again."
	}
}

// extractCommandParams maps named regexp groups to their matched values.
func extractCommandParams(re *regexp.Regexp, match []string) map[string]string {
	params := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i != 0 && name != "" && i < len(match) {
			params[name] = match[i]
		}
	}
	return params
}
