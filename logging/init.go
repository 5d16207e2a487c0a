package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

func init() {
	GlobalLogger = NewLogger(zerolog.Disabled, nil)

	// Errors wrapped with pkg/errors carry their stack, and file logs use unix timestamps.
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
