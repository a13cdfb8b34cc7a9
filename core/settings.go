package core

import "time"

// Settings holds the process-wide configuration.
type Settings struct {
	Telegram TelegramSettings
	Solana   SolanaSettings
	Jupiter  JupiterSettings
	Alerts   AlertSettings
	Storage  StorageSettings
}

// TelegramSettings holds configuration for the Telegram transport.
type TelegramSettings struct {
	Token string
}

// SolanaSettings holds configuration for the ledger RPC.
type SolanaSettings struct {
	RPCURL string
}

// JupiterSettings holds configuration for the swap aggregator and oracle.
type JupiterSettings struct {
	QuoteAPIURL string
	PriceAPIURL string
	TokenAPIURL string

	DefaultSlippageBps  int
	PriorityFeeLamports uint64
}

// AlertSettings holds configuration for the price alert monitor.
type AlertSettings struct {
	CheckInterval time.Duration
}

// StorageSettings holds configuration for encrypted wallet persistence.
// An empty Path keeps wallets in memory for the process lifetime only.
type StorageSettings struct {
	Path       string
	Passphrase string
}

// UserSettings are per-session trading preferences.
type UserSettings struct {
	SlippageBps         int
	PriorityFeeLamports uint64
	Notifications       bool
}
