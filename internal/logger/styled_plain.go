package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solewatch/solewatch/internal/core/domain"
)

// PlainStyledLogger implements StyledLogger without formatting
type PlainStyledLogger struct {
	logger *slog.Logger
}

func NewPlainStyledLogger(logger *slog.Logger) *PlainStyledLogger {
	return &PlainStyledLogger{
		logger: logger,
	}
}

func (sl *PlainStyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *PlainStyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *PlainStyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *PlainStyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *PlainStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styledMsg := fmt.Sprintf("%s (%d)", msg, count)
	sl.logger.Info(styledMsg, args...)
}

func (sl *PlainStyledLogger) InfoWithShop(msg string, shop string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, shop)
	sl.logger.Info(styledMsg, args...)
}

func (sl *PlainStyledLogger) WarnWithShop(msg string, shop string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, shop)
	sl.logger.Warn(styledMsg, args...)
}

func (sl *PlainStyledLogger) ErrorWithShop(msg string, shop string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, shop)
	sl.logger.Error(styledMsg, args...)
}

func (sl *PlainStyledLogger) InfoStock(msg string, sizeEU string, state domain.StockState, args ...any) {
	styledMsg := fmt.Sprintf("%s EU %s is %s", msg, sizeEU, state.String())
	sl.logger.Info(styledMsg, args...)
}

func (sl *PlainStyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *PlainStyledLogger) WithAttrs(attrs ...slog.Attr) StyledLogger {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value)
	}

	return &PlainStyledLogger{
		logger: sl.logger.With(args...),
	}
}

func (sl *PlainStyledLogger) With(args ...any) StyledLogger {
	return &PlainStyledLogger{
		logger: sl.logger.With(args...),
	}
}

func (sl *PlainStyledLogger) InfoWithContext(msg string, shop string, lctx LogContext) {
	sl.logWithContext(LogLevelInfo, msg, shop, lctx)
}

func (sl *PlainStyledLogger) WarnWithContext(msg string, shop string, lctx LogContext) {
	sl.logWithContext(LogLevelWarn, msg, shop, lctx)
}

func (sl *PlainStyledLogger) ErrorWithContext(msg string, shop string, lctx LogContext) {
	sl.logWithContext(LogLevelError, msg, shop, lctx)
}

// logWithContext is the internal method that handles the dual logging logic
func (sl *PlainStyledLogger) logWithContext(level string, msg string, shop string, lctx LogContext) {
	// CLI: clean messaging
	styledMsg := fmt.Sprintf("%s %s", msg, shop)

	switch level {
	case LogLevelInfo:
		sl.logger.Info(styledMsg, lctx.UserArgs...)
	case LogLevelWarn:
		sl.logger.Warn(styledMsg, lctx.UserArgs...)
	case LogLevelError:
		sl.logger.Error(styledMsg, lctx.UserArgs...)
	}

	// log file: detailed hopefully
	if len(lctx.DetailedArgs) > 0 {
		allArgs := make([]interface{}, 0, len(lctx.UserArgs)+len(lctx.DetailedArgs)+2)
		allArgs = append(allArgs, "shop_url", shop)
		allArgs = append(allArgs, lctx.UserArgs...)
		allArgs = append(allArgs, lctx.DetailedArgs...)

		detailedCtx := context.WithValue(context.Background(), DefaultDetailedCookie, true)

		switch level {
		case LogLevelInfo:
			sl.logger.InfoContext(detailedCtx, msg, allArgs...)
		case LogLevelWarn:
			sl.logger.WarnContext(detailedCtx, msg, allArgs...)
		case LogLevelError:
			sl.logger.ErrorContext(detailedCtx, msg, allArgs...)
		}
	}
}
