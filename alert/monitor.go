package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/session"
)

type monitorStatus string

const (
	monitorStatusRunning monitorStatus = "running"
	monitorStatusStopped monitorStatus = "stopped"
)

const defaultCheckInterval = 30 * time.Second

// Monitor periodically evaluates live alerts against the price oracle and
// notifies owners when a target is crossed. A triggered alert is removed, so
// each alert notifies at most once.
type Monitor struct {
	registry *Registry
	sessions *session.Store
	oracle   core.PriceOracle
	notifier core.Notifier
	tokens   core.TokenResolver
	log      core.Logger

	interval time.Duration
	status   monitorStatus
	finish   chan bool
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithCheckInterval overrides the sweep cadence.
func WithCheckInterval(interval time.Duration) MonitorOption {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// NewMonitor creates a stopped monitor. Call Start to begin sweeping.
func NewMonitor(
	registry *Registry,
	sessions *session.Store,
	oracle core.PriceOracle,
	notifier core.Notifier,
	tokens core.TokenResolver,
	log core.Logger,
	options ...MonitorOption,
) *Monitor {
	monitor := &Monitor{
		registry: registry,
		sessions: sessions,
		oracle:   oracle,
		notifier: notifier,
		tokens:   tokens,
		log:      log,
		interval: defaultCheckInterval,
		status:   monitorStatusStopped,
		finish:   make(chan bool, 1),
	}
	for _, option := range options {
		option(monitor)
	}
	return monitor
}

// Start launches the sweep loop. Calling Start on a running monitor is a
// no-op.
func (m *Monitor) Start(ctx context.Context) {
	if m.status != monitorStatusRunning {
		m.status = monitorStatusRunning
		go func() {
			ticker := time.NewTicker(m.interval)
			for {
				select {
				case <-ticker.C:
					m.sweep(ctx)
				case <-ctx.Done():
					ticker.Stop()
					return
				case <-m.finish:
					ticker.Stop()
					return
				}
			}
		}()
		m.log.Info("alert monitor started")
	}
}

// Stop halts the sweep loop.
func (m *Monitor) Stop() {
	if m.status == monitorStatusRunning {
		m.status = monitorStatusStopped
		m.finish <- true
		m.log.Info("alert monitor stopped")
	}
}

// sweep evaluates every live alert once. Each asset is fetched from the
// oracle at most once per sweep; a failed fetch skips that asset's alerts
// until the next sweep.
func (m *Monitor) sweep(ctx context.Context) {
	live := m.registry.Live()
	if len(live) == 0 {
		return
	}

	mints := lo.Uniq(lo.Map(live, func(alert core.Alert, _ int) string {
		return alert.Mint
	}))

	prices := make(map[string]decimal.Decimal, len(mints))
	for _, mint := range mints {
		price, err := m.oracle.Price(ctx, mint)
		if err != nil {
			m.log.WithError(err).WithField("mint", mint).
				Warn("price fetch failed, skipping asset this sweep")
			continue
		}
		prices[mint] = price
	}

	for _, alert := range live {
		price, ok := prices[alert.Mint]
		if !ok || !alert.Crossed(price) {
			continue
		}

		fired, ok := m.registry.TriggerAndRemove(alert.ID)
		if !ok {
			continue
		}

		m.sessions.Get(fired.UserID).RemoveAlert(fired.ID)
		m.notifier.Notify(fired.UserID, m.message(ctx, fired, price))

		m.log.WithFields(map[string]any{
			"alert_id": fired.ID,
			"user_id":  fired.UserID,
			"mint":     fired.Mint,
			"price":    price.String(),
		}).Info("alert triggered")
	}
}

func (m *Monitor) message(ctx context.Context, alert core.Alert, price decimal.Decimal) string {
	label := alert.Mint
	if m.tokens != nil {
		if info, err := m.tokens.TokenInfo(ctx, alert.Mint); err == nil && info.Symbol != "" {
			label = info.Symbol
		}
	}

	verb := "rose above"
	if alert.Direction == core.AlertBelow {
		verb = "dropped below"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔔 Price alert #%d\n", alert.ID)
	fmt.Fprintf(&b, "%s %s %s (now %s)", label, verb, alert.TargetPrice.String(), price.String())
	return b.String()
}
