package notification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/session"
	"github.com/grokini/tradebot/swap"
)

const bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func TestBuyCommandParsing(t *testing.T) {
	match := buyRegexp.FindStringSubmatch("/buy " + bonkMint + " 0.5")
	require.NotEmpty(t, match)

	params := extractCommandParams(buyRegexp, match)
	assert.Equal(t, bonkMint, params["mint"])
	assert.Equal(t, "0.5", params["amount"])

	assert.Empty(t, buyRegexp.FindStringSubmatch("/buy notamint 0.5"))
	assert.Empty(t, buyRegexp.FindStringSubmatch("/buy "+bonkMint))
}

func TestSellCommandParsingPercent(t *testing.T) {
	match := sellRegexp.FindStringSubmatch("/sell " + bonkMint + " 50%")
	require.NotEmpty(t, match)

	params := extractCommandParams(sellRegexp, match)
	assert.Equal(t, "50", params["amount"])
	assert.Equal(t, "%", params["percent"])

	params = extractCommandParams(sellRegexp, sellRegexp.FindStringSubmatch("/sell "+bonkMint+" 1000"))
	assert.Empty(t, params["percent"])
}

func TestAlertCommandParsing(t *testing.T) {
	match := alertRegexp.FindStringSubmatch("/alert " + bonkMint + " above 1.50")
	require.NotEmpty(t, match)

	params := extractCommandParams(alertRegexp, match)
	assert.Equal(t, "above", params["direction"])
	assert.Equal(t, "1.50", params["target"])

	// Target may arrive in a follow-up message.
	match = alertRegexp.FindStringSubmatch("/alert " + bonkMint + " below")
	require.NotEmpty(t, match)
	assert.Empty(t, extractCommandParams(alertRegexp, match)["target"])

	assert.Empty(t, alertRegexp.FindStringSubmatch("/alert "+bonkMint+" sideways 1.50"))
}

func TestErrorMessageMapping(t *testing.T) {
	bot := &Telegram{}

	cases := []struct {
		err  error
		want string
	}{
		{core.ErrNoActiveWallet, "No wallet connected"},
		{fmt.Errorf("decode: %w", core.ErrInvalidKeyFormat), "base58 secret key"},
		{core.ErrInvalidMnemonic, "recovery phrase"},
		{core.ErrNoPendingTrade, "quote a trade first"},
		{core.ErrQuoteExpired, "expired"},
		{core.ErrNoRoute, "No swap route"},
		{core.ErrUpstreamUnavailable, "unavailable"},
		{fmt.Errorf("%w: amount must be positive", core.ErrInvalidInput), "amount must be positive"},
		{errors.New("boom"), "Something went wrong"},
	}
	for _, tc := range cases {
		assert.Contains(t, bot.errorMessage(tc.err), tc.want)
	}
}

func TestReceiptMessageDistinguishesTimeoutFromRejection(t *testing.T) {
	bot := &Telegram{}
	receipt := &swap.Receipt{Signature: "5sig", State: swap.StateTimedOut}

	text := bot.formatReceiptMessage(receipt, core.ErrConfirmationTimeout)
	assert.Contains(t, text, "may still have moved")
	assert.Contains(t, text, "5sig")
	assert.NotContains(t, text, "No tokens were exchanged")

	receipt.State = swap.StateRejected
	text = bot.formatReceiptMessage(receipt, core.ErrTransactionRejected)
	assert.Contains(t, text, "No tokens were exchanged")
	assert.NotContains(t, text, "may still have moved")
}

type fixedLedger struct {
	core.Ledger
	holdings []core.TokenBalance
}

func (l *fixedLedger) TokenAccounts(context.Context, string) ([]core.TokenBalance, error) {
	return l.holdings, nil
}

type fixedTokens struct {
	decimals int
}

func (r *fixedTokens) TokenInfo(_ context.Context, mint string) (core.TokenInfo, error) {
	return core.TokenInfo{Mint: mint, Symbol: "BONK", Decimals: r.decimals}, nil
}

func TestCommandSupersedesInputMode(t *testing.T) {
	sessions := session.NewStore(core.UserSettings{})
	bot := &Telegram{sessions: sessions}

	userSession := sessions.Get(7)
	userSession.SetInputMode(session.ModeAwaitingSecretKey)

	var modeInsideHandler session.InputMode
	handler := bot.command(func(m *tb.Message) {
		modeInsideHandler = sessions.Get(m.Sender.ID).InputMode()
	})
	handler(&tb.Message{Sender: &tb.User{ID: 7}})

	assert.Equal(t, session.ModeIdle, modeInsideHandler,
		"an intervening command must discard the armed mode")
	assert.Equal(t, session.ModeIdle, userSession.InputMode())

	// A command that arms a mode itself still leaves it armed.
	handler = bot.command(func(m *tb.Message) {
		sessions.Get(m.Sender.ID).SetInputMode(session.ModeAwaitingPhrase)
	})
	handler(&tb.Message{Sender: &tb.User{ID: 7}})
	assert.Equal(t, session.ModeAwaitingPhrase, userSession.InputMode())
}

func TestRawUnitsRejectsOverflow(t *testing.T) {
	raw, err := rawUnits(decimal.RequireFromString("1.5"), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500000000), raw)

	_, err = rawUnits(decimal.RequireFromString("9000000000"), 9)
	require.NoError(t, err)

	_, err = rawUnits(decimal.RequireFromString("99999999999999999999"), 9)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = rawUnits(decimal.New(math.MaxInt64, 0).Add(decimal.NewFromInt(1)), 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSellAmountRaw(t *testing.T) {
	bot := &Telegram{
		ledger: &fixedLedger{holdings: []core.TokenBalance{
			{Mint: bonkMint, Amount: 2000, Decimals: 5},
		}},
		tokens: &fixedTokens{decimals: 5},
	}
	ctx := context.Background()

	raw, err := bot.sellAmountRaw(ctx, "addr", bonkMint, decimal.NewFromInt(1000), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(100000000), raw)

	raw, err = bot.sellAmountRaw(ctx, "addr", bonkMint, decimal.NewFromInt(50), true)
	require.NoError(t, err)
	assert.Equal(t, uint64(100000000), raw, "50%% of 2000 held tokens")

	_, err = bot.sellAmountRaw(ctx, "addr", bonkMint, decimal.NewFromInt(150), true)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = bot.sellAmountRaw(ctx, "addr", wsolMint, decimal.NewFromInt(10), true)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
