package tradebot

import (
	"os"
	"strconv"

	"github.com/grokini/tradebot/core"
	"github.com/grokini/tradebot/logger/zerolog"
)

// DefaultLog is the default logger instance.
var DefaultLog core.Logger

const (
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "TRADEBOT_LOG_LEVEL"
	envLogTimeFormat = "TRADEBOT_LOG_TIME_FORMAT"
	envLogColor      = "TRADEBOT_LOG_COLOR"
	envLogJSON       = "TRADEBOT_LOG_JSON"
)

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}
	DefaultLog = zerolog.NewAdapter(log.Logger)
}

// initLogger creates a logger configured from environment variables.
func initLogger() (*zerolog.Logger, error) {
	logLevel := getEnvWithDefault(envLogLevel, defaultLogLevel)
	logTimeFormat := getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat)

	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	return zerolog.New(logLevel, logTimeFormat, logColored, logJSON)
}

// getEnvWithDefault returns the environment variable or the default if unset.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseBoolEnv gets a boolean environment variable with a default value.
func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}
