package badger

import (
	"strings"

	"github.com/rs/zerolog"
)

// logger adapts zerolog to badger's Logger interface.
type logger struct {
	log zerolog.Logger
}

func newLogger(log zerolog.Logger) *logger {
	return &logger{log: log.With().Str("component", "badger").Logger()}
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSuffix(format, "\n"), args...)
}
