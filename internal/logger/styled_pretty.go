package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/theme"
)

// PrettyStyledLogger implements StyledLogger with pterm formatting
type PrettyStyledLogger struct {
	logger *slog.Logger
	Theme  *theme.Theme
}

func NewPrettyStyledLogger(logger *slog.Logger, theme *theme.Theme) *PrettyStyledLogger {
	return &PrettyStyledLogger{
		logger: logger,
		Theme:  theme,
	}
}
func (sl *PrettyStyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *PrettyStyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *PrettyStyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *PrettyStyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *PrettyStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Counts.Sprint("(", count, ")"))
	sl.logger.Info(styledMsg, args...)
}

func (sl *PrettyStyledLogger) InfoWithShop(msg string, shop string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Shop.Sprint(shop))
	sl.logger.Info(styledMsg, args...)
}

func (sl *PrettyStyledLogger) WarnWithShop(msg string, shop string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Shop.Sprint(shop))
	sl.logger.Warn(styledMsg, args...)
}

func (sl *PrettyStyledLogger) ErrorWithShop(msg string, shop string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Shop.Sprint(shop))
	sl.logger.Error(styledMsg, args...)
}

func (sl *PrettyStyledLogger) InfoStock(msg string, sizeEU string, state domain.StockState, args ...any) {
	var stockColor pterm.Color

	switch state {
	case domain.StockIn:
		stockColor = sl.Theme.StockIn
	case domain.StockOut:
		stockColor = sl.Theme.StockOut
	default:
		stockColor = sl.Theme.StockUnknown
	}

	styledMsg := fmt.Sprintf("%s %s is %s",
		msg,
		sl.Theme.Counts.Sprint("EU ", sizeEU), pterm.Style{stockColor}.Sprint(state.String()))

	sl.logger.Info(styledMsg, args...)
}

func (sl *PrettyStyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *PrettyStyledLogger) WithAttrs(attrs ...slog.Attr) StyledLogger {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value)
	}

	return &PrettyStyledLogger{
		logger: sl.logger.With(args...),
		Theme:  sl.Theme,
	}
}

func (sl *PrettyStyledLogger) With(args ...any) StyledLogger {
	return &PrettyStyledLogger{
		logger: sl.logger.With(args...),
		Theme:  sl.Theme,
	}
}

func (sl *PrettyStyledLogger) InfoWithContext(msg string, shop string, lctx LogContext) {
	sl.logWithContext(LogLevelInfo, msg, shop, lctx)
}

func (sl *PrettyStyledLogger) WarnWithContext(msg string, shop string, lctx LogContext) {
	sl.logWithContext(LogLevelWarn, msg, shop, lctx)
}

func (sl *PrettyStyledLogger) ErrorWithContext(msg string, shop string, lctx LogContext) {
	sl.logWithContext(LogLevelError, msg, shop, lctx)
}

// logWithContext is the internal method that handles the dual logging logic
func (sl *PrettyStyledLogger) logWithContext(level string, msg string, shop string, lctx LogContext) {
	// CLI: clean messaging
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Shop.Sprint(shop))

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
