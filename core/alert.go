package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertDirection tells which price crossing arms an alert.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// Valid reports whether the direction is one of the known values.
func (d AlertDirection) Valid() bool {
	return d == AlertAbove || d == AlertBelow
}

// Alert is a one-shot price watch. Once triggered it is removed, never
// re-armed; at most one notification is ever sent for a given id.
type Alert struct {
	ID          int64
	UserID      int64
	Mint        string
	TargetPrice decimal.Decimal
	Direction   AlertDirection
	Triggered   bool
	CreatedAt   time.Time
}

// Crossed reports whether price satisfies the alert condition.
func (a *Alert) Crossed(price decimal.Decimal) bool {
	switch a.Direction {
	case AlertAbove:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case AlertBelow:
		return price.LessThanOrEqual(a.TargetPrice)
	}
	return false
}
