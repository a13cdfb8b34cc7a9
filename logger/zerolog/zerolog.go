// Package zerolog adapts github.com/rs/zerolog to the core.Logger contract.
package zerolog

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger wraps a configured zerolog logger.
type Logger struct {
	*zerolog.Logger
}

// New creates a zerolog logger writing to stdout. With jsonFormat disabled it
// uses the human-readable console writer.
func New(level, dateTimeLayout string, colored, jsonFormat bool) (*Logger, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logMode, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(logMode)

	logger := log.Logger
	if !jsonFormat {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			NoColor:    !colored,
			TimeFormat: dateTimeLayout,
		}
		logger = log.Output(output)
	}

	logger = logger.With().Timestamp().Logger()
	return &Logger{&logger}, nil
}

// NewNop returns a disabled logger, useful in tests.
func NewNop() *Adapter {
	logger := zerolog.Nop()
	return NewAdapter(&logger)
}
