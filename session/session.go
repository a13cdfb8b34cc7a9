// Package session holds per-user conversational state: the active signer,
// the input-mode state machine, the single pending trade and the user's
// alert ids. All mutation on one session is serialized; different users'
// sessions are fully independent.
package session

import (
	"sync"
	"time"

	"github.com/StudioSol/set"

	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/wallet"
)

// InputMode is the conversational state machine position. Any mode other
// than Idle is consumed by exactly one subsequent text message.
type InputMode string

const (
	ModeIdle                 InputMode = "idle"
	ModeAwaitingSecretKey    InputMode = "awaiting_secret_key"
	ModeAwaitingPhrase       InputMode = "awaiting_phrase"
	ModeAwaitingAlertTarget  InputMode = "awaiting_alert_target"
	ModeAwaitingTokenAddress InputMode = "awaiting_token_address"
)

// AlertDraft is a partially specified alert waiting for its target price
// while the session sits in ModeAwaitingAlertTarget.
type AlertDraft struct {
	Mint      string
	Direction core.AlertDirection
}

// Session is one user's state. Created lazily by the Store and kept for the
// process lifetime.
type Session struct {
	UserID    int64
	CreatedAt time.Time

	mu           sync.Mutex
	signer       *wallet.Signer
	inputMode    InputMode
	pendingTrade *core.PendingTrade
	alertDraft   *AlertDraft
	alerts       *set.LinkedHashSetINT64
	settings     core.UserSettings
}

func newSession(userID int64, defaults core.UserSettings) *Session {
	return &Session{
		UserID:    userID,
		CreatedAt: time.Now(),
		inputMode: ModeIdle,
		alerts:    set.NewLinkedHashSetINT64(),
		settings:  defaults,
	}
}

// Signer returns the active signer, or nil when no wallet is connected.
func (s *Session) Signer() *wallet.Signer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signer
}

// SetSigner replaces the active signer. A previously connected signer is
// zeroed: its secret material must not outlive its session slot.
func (s *Session) SetSigner(signer *wallet.Signer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signer != nil {
		s.signer.Zero()
	}
	s.signer = signer
}

// DisconnectWallet zeroes and drops the active signer.
func (s *Session) DisconnectWallet() {
	s.SetSigner(nil)
}

// InputMode returns the current conversational mode.
func (s *Session) InputMode() InputMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputMode
}

// SetInputMode arms the conversational mode for the next text message.
func (s *Session) SetInputMode(mode InputMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputMode = mode
}

// ConsumeInputMode returns the armed mode and unconditionally resets to
// Idle. The reset does not depend on whether the consumer succeeds, so a
// stuck mode cannot survive into unrelated messages.
func (s *Session) ConsumeInputMode() InputMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := s.inputMode
	s.inputMode = ModeIdle
	return mode
}

// PendingTrade returns the trade awaiting confirmation, or nil.
func (s *Session) PendingTrade() *core.PendingTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingTrade
}

// SetPendingTrade stores the trade awaiting confirmation. A prior pending
// trade is overwritten, never queued.
func (s *Session) SetPendingTrade(trade *core.PendingTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingTrade = trade
}

// TakePendingTrade removes and returns the pending trade: an execution
// attempt clears the slot whether it later succeeds or fails.
func (s *Session) TakePendingTrade() *core.PendingTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	trade := s.pendingTrade
	s.pendingTrade = nil
	return trade
}

// SetAlertDraft stashes a partial alert until its target price arrives.
func (s *Session) SetAlertDraft(draft AlertDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertDraft = &draft
}

// TakeAlertDraft removes and returns the stashed partial alert.
func (s *Session) TakeAlertDraft() (AlertDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alertDraft == nil {
		return AlertDraft{}, false
	}
	draft := *s.alertDraft
	s.alertDraft = nil
	return draft, true
}

// AddAlert records an alert id owned by this session.
func (s *Session) AddAlert(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts.Add(id)
}

// RemoveAlert drops an alert id.
func (s *Session) RemoveAlert(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts.Remove(id)
}

// HasAlert reports whether the session owns the alert id.
func (s *Session) HasAlert(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.InArray(id)
}

// AlertIDs returns the owned alert ids in insertion order.
func (s *Session) AlertIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, s.alerts.Length())
	for id := range s.alerts.Iter() {
		ids = append(ids, id)
	}
	return ids
}

// Settings returns a copy of the user's trading preferences.
func (s *Session) Settings() core.UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSlippageBps updates the preferred slippage.
func (s *Session) SetSlippageBps(bps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.SlippageBps = bps
}

// SetPriorityFee updates the preferred priority fee.
func (s *Session) SetPriorityFee(lamports uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.PriorityFeeLamports = lamports
}

// SetNotifications toggles proactive message delivery for this user.
func (s *Session) SetNotifications(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Notifications = enabled
}
