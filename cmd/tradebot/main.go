package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/grokini/tradebot"
	"github.com/grokini/tradebot/core"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "tradebot",
		Short:   "Telegram trading bot for Solana tokens",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	// Missing .env is fine, the environment may be set by the supervisor.
	_ = godotenv.Load()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	bot, err := tradebot.NewBot(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bot.Run(ctx)
}

func loadSettings() (*core.Settings, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	passphrase := os.Getenv("WALLET_PASSPHRASE")
	if passphrase == "" {
		return nil, fmt.Errorf("WALLET_PASSPHRASE is required")
	}

	checkInterval, err := str2duration.ParseDuration(envOrDefault("ALERT_CHECK_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_CHECK_INTERVAL: %w", err)
	}

	slippageBps, err := strconv.Atoi(envOrDefault("DEFAULT_SLIPPAGE_BPS", "100"))
	if err != nil || slippageBps < 1 || slippageBps > 5000 {
		return nil, fmt.Errorf("DEFAULT_SLIPPAGE_BPS must be an integer between 1 and 5000")
	}

	priorityFee, err := strconv.ParseUint(envOrDefault("PRIORITY_FEE_LAMPORTS", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PRIORITY_FEE_LAMPORTS: %w", err)
	}

	return &core.Settings{
		Telegram: core.TelegramSettings{Token: token},
		Solana: core.SolanaSettings{
			RPCURL: envOrDefault("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		},
		Jupiter: core.JupiterSettings{
			QuoteAPIURL:         os.Getenv("JUPITER_QUOTE_API_URL"),
			PriceAPIURL:         os.Getenv("JUPITER_PRICE_API_URL"),
			TokenAPIURL:         os.Getenv("JUPITER_TOKEN_API_URL"),
			DefaultSlippageBps:  slippageBps,
			PriorityFeeLamports: priorityFee,
		},
		Alerts: core.AlertSettings{CheckInterval: checkInterval},
		Storage: core.StorageSettings{
			Path:       envOrDefault("WALLET_DB_PATH", "tradebot.db"),
			Passphrase: passphrase,
		},
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
