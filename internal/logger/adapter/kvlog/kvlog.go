// Package kvlog adapts zerolog to loggers that take a message followed by
// alternating key/value pairs, such as the backlite task queue.
package kvlog

import (
	"github.com/rs/zerolog/log"
)

type Logger struct {
	Component string
}

func New(component string) *Logger {
	return &Logger{Component: component}
}

func (l *Logger) Info(message string, params ...any) {
	log.Info().Str("component", l.Component).Fields(pairs(params)).Msg(message)
}

func (l *Logger) Error(message string, params ...any) {
	log.Error().Str("component", l.Component).Fields(pairs(params)).Msg(message)
}

// pairs drops a trailing key with no value so zerolog does not panic on it.
func pairs(params []any) []any {
	if len(params)%2 != 0 {
		return params[:len(params)-1]
	}
	return params
}
