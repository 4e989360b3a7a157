package codec

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// Logger returns the codec package logger. It discards everything until
// SetLogger is called.
func Logger() *zerolog.Logger {
	return logger.Load()
}

// SetLogger replaces the codec package logger.
func SetLogger(l zerolog.Logger) {
	l = l.With().Str("component", "codec").Logger()
	logger.Store(&l)
}
