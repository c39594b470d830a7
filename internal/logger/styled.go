package logger

import (
	"log/slog"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/util"
	"github.com/solewatch/solewatch/theme"
)

// StyledLogger wraps slog.Logger with theme-aware formatting. The pretty
// variant colours shop URLs, counts and stock states for the terminal; the
// plain variant serves non-TTY runs and log files untouched.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithCount(msg string, count int, args ...any)
	InfoWithShop(msg string, shop string, args ...any)
	WarnWithShop(msg string, shop string, args ...any)
	ErrorWithShop(msg string, shop string, args ...any)
	InfoStock(msg string, sizeEU string, state domain.StockState, args ...any)

	InfoWithContext(msg string, shop string, lctx LogContext)
	WarnWithContext(msg string, shop string, lctx LogContext)
	ErrorWithContext(msg string, shop string, lctx LogContext)

	GetUnderlying() *slog.Logger
	With(args ...any) StyledLogger
	WithAttrs(attrs ...slog.Attr) StyledLogger
}

// NewStyledLogger picks the implementation matching the terminal
// capabilities.
func NewStyledLogger(logger *slog.Logger, appTheme *theme.Theme) StyledLogger {
	if util.ShouldUseColors() {
		return NewPrettyStyledLogger(logger, appTheme)
	}
	return NewPlainStyledLogger(logger)
}

func NewWithTheme(cfg *Config) (*slog.Logger, StyledLogger, func(), error) {
	logger, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	appTheme := theme.GetTheme(cfg.Theme)
	styledLogger := NewStyledLogger(logger, appTheme)

	return logger, styledLogger, cleanup, nil
}

/**
 * LogContext provides a structured way to separate user-facing and detailed logging context.
 * This allows for cleaner terminal output while still capturing all necessary details in the log file.
 * That way, we get a clean TUI output with user-friendly messages, and detailed logs for debugging.
 */

// LogContext separates user-facing from detailed logging context
type LogContext struct {
	UserArgs     []interface{}
	DetailedArgs []interface{}
}
