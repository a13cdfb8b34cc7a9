// Package alert owns price alerts and the background monitor that evaluates
// them against the oracle on a fixed cadence.
package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grokini/tradebot/core"
)

// Registry is the authoritative set of live alerts. Ids are monotonic and
// process-unique; a triggered alert leaves the registry forever.
type Registry struct {
	mu     sync.Mutex
	alerts map[int64]*core.Alert
	lastID int64
}

// NewRegistry creates an empty alert registry.
func NewRegistry() *Registry {
	return &Registry{alerts: make(map[int64]*core.Alert)}
}

// Create validates and registers a new alert.
func (r *Registry) Create(userID int64, mint string, target decimal.Decimal, direction core.AlertDirection) (core.Alert, error) {
	if mint == "" {
		return core.Alert{}, fmt.Errorf("%w: mint is required", core.ErrInvalidInput)
	}
	if !target.IsPositive() {
		return core.Alert{}, fmt.Errorf("%w: target price must be positive", core.ErrInvalidInput)
	}
	if !direction.Valid() {
		return core.Alert{}, fmt.Errorf("%w: direction must be above or below", core.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	alert := &core.Alert{
		ID:          r.lastID,
		UserID:      userID,
		Mint:        mint,
		TargetPrice: target,
		Direction:   direction,
		CreatedAt:   time.Now(),
	}
	r.alerts[alert.ID] = alert
	return *alert, nil
}

// Remove deletes an alert owned by userID.
func (r *Registry) Remove(userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[id]
	if !ok || alert.UserID != userID {
		return core.ErrAlertNotFound
	}
	delete(r.alerts, id)
	return nil
}

// ByUser returns copies of the user's alerts in id order.
func (r *Registry) ByUser(userID int64) []core.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts := make([]core.Alert, 0)
	for id := int64(1); id <= r.lastID; id++ {
		if alert, ok := r.alerts[id]; ok && alert.UserID == userID {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

// Live returns copies of every untriggered alert.
func (r *Registry) Live() []core.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts := make([]core.Alert, 0, len(r.alerts))
	for id := int64(1); id <= r.lastID; id++ {
		if alert, ok := r.alerts[id]; ok && !alert.Triggered {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

// TriggerAndRemove atomically marks an alert triggered and removes it. The
// second caller for the same id gets false, which is what guarantees one
// notification per alert lifetime.
func (r *Registry) TriggerAndRemove(id int64) (core.Alert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[id]
	if !ok || alert.Triggered {
		return core.Alert{}, false
	}
	alert.Triggered = true
	delete(r.alerts, id)
	return *alert, true
}
