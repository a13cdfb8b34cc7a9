package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/logger/zerolog"
	"github.com/grokini/tradebot/session"
)

const (
	wsolMint = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type scriptedOracle struct {
	mu     sync.Mutex
	prices map[string][]any // decimal.Decimal or error, consumed in order
	calls  map[string]int
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{
		prices: make(map[string][]any),
		calls:  make(map[string]int),
	}
}

func (o *scriptedOracle) push(mint string, step any) {
	o.prices[mint] = append(o.prices[mint], step)
}

func (o *scriptedOracle) Price(_ context.Context, mint string) (decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls[mint]++
	steps := o.prices[mint]
	if len(steps) == 0 {
		return decimal.Zero, core.ErrPriceUnavailable
	}
	step := steps[0]
	o.prices[mint] = steps[1:]

	if err, ok := step.(error); ok {
		return decimal.Zero, err
	}
	return step.(decimal.Decimal), nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	users    []int64
}

func (n *recordingNotifier) Notify(userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	n.messages = append(n.messages, text)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRegistryCreateValidation(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Create(1, "", price("1"), core.AlertAbove)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = registry.Create(1, wsolMint, price("0"), core.AlertAbove)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = registry.Create(1, wsolMint, price("-5"), core.AlertAbove)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = registry.Create(1, wsolMint, price("1"), core.AlertDirection("sideways"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRegistryIDsAreMonotonic(t *testing.T) {
	registry := NewRegistry()

	first, err := registry.Create(1, wsolMint, price("150"), core.AlertAbove)
	require.NoError(t, err)
	second, err := registry.Create(2, usdcMint, price("0.99"), core.AlertBelow)
	require.NoError(t, err)

	require.NoError(t, registry.Remove(1, first.ID))

	third, err := registry.Create(1, wsolMint, price("160"), core.AlertAbove)
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
	assert.Greater(t, third.ID, second.ID)
}

func TestRegistryRemoveWrongOwner(t *testing.T) {
	registry := NewRegistry()

	alert, err := registry.Create(1, wsolMint, price("150"), core.AlertAbove)
	require.NoError(t, err)

	assert.ErrorIs(t, registry.Remove(2, alert.ID), core.ErrAlertNotFound)
	assert.ErrorIs(t, registry.Remove(1, alert.ID+99), core.ErrAlertNotFound)
	assert.NoError(t, registry.Remove(1, alert.ID))
	assert.ErrorIs(t, registry.Remove(1, alert.ID), core.ErrAlertNotFound)
}

func TestRegistryTriggerAndRemoveIsSingleShot(t *testing.T) {
	registry := NewRegistry()

	alert, err := registry.Create(1, wsolMint, price("150"), core.AlertAbove)
	require.NoError(t, err)

	fired, ok := registry.TriggerAndRemove(alert.ID)
	require.True(t, ok)
	assert.True(t, fired.Triggered)

	_, ok = registry.TriggerAndRemove(alert.ID)
	assert.False(t, ok)
	assert.Empty(t, registry.ByUser(1))
}

func newTestMonitor(oracle core.PriceOracle, notifier core.Notifier) (*Monitor, *Registry, *session.Store) {
	registry := NewRegistry()
	sessions := session.NewStore(core.UserSettings{SlippageBps: 100})
	monitor := NewMonitor(registry, sessions, oracle, notifier, nil, zerolog.NewNop())
	return monitor, registry, sessions
}

func TestMonitorFiresEachAlertExactlyOnce(t *testing.T) {
	oracle := newScriptedOracle()
	oracle.push(wsolMint, price("0.99"))
	oracle.push(wsolMint, price("1.01"))
	oracle.push(wsolMint, price("1.02"))

	notifier := &recordingNotifier{}
	monitor, registry, sessions := newTestMonitor(oracle, notifier)

	alert, err := registry.Create(42, wsolMint, price("1.00"), core.AlertAbove)
	require.NoError(t, err)
	sessions.Get(42).AddAlert(alert.ID)

	ctx := context.Background()

	monitor.sweep(ctx)
	assert.Zero(t, notifier.count(), "price below target must not fire")

	monitor.sweep(ctx)
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, int64(42), notifier.users[0])
	assert.Contains(t, notifier.messages[0], fmt.Sprintf("#%d", alert.ID))
	assert.Empty(t, registry.ByUser(42))
	assert.False(t, sessions.Get(42).HasAlert(alert.ID))

	monitor.sweep(ctx)
	assert.Equal(t, 1, notifier.count(), "removed alert must never fire again")
}

func TestMonitorBelowDirectionCrossesAtTarget(t *testing.T) {
	oracle := newScriptedOracle()
	oracle.push(usdcMint, price("1.00"))
	oracle.push(usdcMint, price("0.98"))

	notifier := &recordingNotifier{}
	monitor, registry, sessions := newTestMonitor(oracle, notifier)

	alert, err := registry.Create(7, usdcMint, price("0.98"), core.AlertBelow)
	require.NoError(t, err)
	sessions.Get(7).AddAlert(alert.ID)

	ctx := context.Background()

	monitor.sweep(ctx)
	assert.Zero(t, notifier.count())

	monitor.sweep(ctx)
	require.Equal(t, 1, notifier.count(), "crossing is inclusive of the target")
	assert.Contains(t, notifier.messages[0], "dropped below")
}

func TestMonitorFetchFailureSkipsAssetUntilNextSweep(t *testing.T) {
	oracle := newScriptedOracle()
	oracle.push(wsolMint, errors.New("rpc unreachable"))
	oracle.push(wsolMint, price("200"))

	notifier := &recordingNotifier{}
	monitor, registry, sessions := newTestMonitor(oracle, notifier)

	alert, err := registry.Create(5, wsolMint, price("150"), core.AlertAbove)
	require.NoError(t, err)
	sessions.Get(5).AddAlert(alert.ID)

	ctx := context.Background()

	monitor.sweep(ctx)
	assert.Zero(t, notifier.count(), "failed fetch must not fire or drop the alert")
	assert.Len(t, registry.ByUser(5), 1)

	monitor.sweep(ctx)
	assert.Equal(t, 1, notifier.count())
}

func TestMonitorFetchesEachAssetOncePerSweep(t *testing.T) {
	oracle := newScriptedOracle()
	oracle.push(wsolMint, price("100"))

	notifier := &recordingNotifier{}
	monitor, registry, sessions := newTestMonitor(oracle, notifier)

	for _, target := range []string{"150", "180", "210"} {
		alert, err := registry.Create(9, wsolMint, price(target), core.AlertAbove)
		require.NoError(t, err)
		sessions.Get(9).AddAlert(alert.ID)
	}

	monitor.sweep(context.Background())
	assert.Equal(t, 1, oracle.calls[wsolMint])
}

func TestMonitorStartStop(t *testing.T) {
	oracle := newScriptedOracle()
	notifier := &recordingNotifier{}
	monitor, _, _ := newTestMonitor(oracle, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.Start(ctx)
	monitor.Start(ctx) // idempotent
	monitor.Stop()
	monitor.Stop() // idempotent
}
