package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQueryThreshold marks statements logged at warn level.
const slowQueryThreshold = 200 * time.Millisecond

// gormLogger sends GORM output to the zerolog logger carried by the
// statement context. Record-not-found is an expected outcome and never logged.
type gormLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(level logger.LogLevel, slow time.Duration) logger.Interface {
	return &gormLogger{level: level, slow: slow}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		zerolog.Ctx(ctx).Info().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		zerolog.Ctx(ctx).Warn().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		zerolog.Ctx(ctx).Error().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	log := zerolog.Ctx(ctx)

	var ev *zerolog.Event
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		ev = log.Error().Err(err)
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		ev = log.Warn().Dur("threshold", l.slow)
	case l.level >= logger.Info:
		ev = log.Debug()
	default:
		return
	}

	sql, rows := fc()
	ev.Str("component", "gorm").
		Dur("elapsed", elapsed).
		Int64("rows", rows).
		Str("sql", sql).
		Msg("query")
}
