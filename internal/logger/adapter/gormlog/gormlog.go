// Package gormlog adapts zerolog to gorm's logger interface.
package gormlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

type Logger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	logger        func() *zerolog.Logger
}

// New returns a gorm logger writing through the global zerolog logger.
// Statements are traced at debug level, slow ones at warn.
func New(level gormlogger.LogLevel) *Logger {
	return &Logger{
		level:         level,
		slowThreshold: defaultSlowThreshold,
		logger:        func() *zerolog.Logger { return &log.Logger },
	}
}

func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *Logger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger().Info().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger().Warn().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger().Error().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.logger().Error().Err(err).Str("component", "gorm").
			Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger().Warn().Str("component", "gorm").
			Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger().Debug().Str("component", "gorm").
			Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
