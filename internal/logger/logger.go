package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/solewatch/solewatch/internal/util"
	"github.com/solewatch/solewatch/theme"
)

// Config carries the resolved logging configuration: sink switches and
// stored numeric levels from the config store, rotation knobs from the
// bootstrap config.
type Config struct {
	LogDir       string
	Theme        string
	ConsoleLevel int
	FileLevel    int
	MaxSize      int // megabytes
	MaxBackups   int
	MaxAge       int // days
	Console      bool
	FileOutput   bool
}

const (
	DefaultLogOutputName = "solewatch.log"

	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// DefaultDetailedCookie marks a context whose record should reach the file
// sink only, keeping the terminal clean.
type detailedMarker string

const DefaultDetailedCookie detailedMarker = "detailed"

func New(cfg *Config) (*slog.Logger, func(), error) {
	appTheme := theme.GetTheme(cfg.Theme)

	var cleanupFuncs []func()
	var terminalHandler, fileHandler slog.Handler

	if cfg.Console {
		terminalHandler = createTerminalHandler(levelFromStored(cfg.ConsoleLevel), appTheme)
	}

	if cfg.FileOutput {
		handler, cleanup, err := createFileHandler(cfg, levelFromStored(cfg.FileLevel))
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, cleanup)
		fileHandler = handler
	}

	var logger *slog.Logger
	switch {
	case terminalHandler != nil && fileHandler != nil:
		logger = slog.New(&fastMultiHandler{
			terminalHandler: terminalHandler,
			fileHandler:     fileHandler,
		})
	case terminalHandler != nil:
		logger = slog.New(terminalHandler)
	case fileHandler != nil:
		logger = slog.New(fileHandler)
	default:
		logger = slog.New(slog.DiscardHandler)
	}

	cleanup := func() {
		for _, fn := range cleanupFuncs {
			fn()
		}
	}

	return logger, cleanup, nil
}

func createTerminalHandler(level slog.Level, appTheme *theme.Theme) slog.Handler {
	if util.ShouldUseColors() {
		// Colourful terminal output - use pterm
		plogger := pterm.DefaultLogger.
			WithLevel(convertToPTermLevel(level)).
			WithWriter(os.Stdout).
			WithFormatter(pterm.LogFormatterColorful)

		keyStyles := map[string]pterm.Style{
			"level": *appTheme.Info,
			"msg":   *appTheme.Info,
			"time":  *appTheme.Muted,
		}
		plogger = plogger.WithKeyStyles(keyStyles)
		return pterm.NewSlogHandler(plogger)
	}

	// JSON output for non-TTY - use standard slog JSON handler
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		AddSource:   false,
		ReplaceAttr: fastReplaceAttr,
	})
}

func createFileHandler(cfg *Config, level slog.Level) (slog.Handler, func(), error) {
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, DefaultLogOutputName),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}

	handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level:       level,
		AddSource:   false,
		ReplaceAttr: fastReplaceAttr,
	})

	cleanup := func() {
		_ = rotator.Close()
	}

	return handler, cleanup, nil
}

// fastReplaceAttr - handles complex types and ANSI codes
func fastReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		return slog.Attr{
			Key:   "timestamp",
			Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05")),
		}
	default:
		switch a.Value.Kind() {
		case slog.KindString:
			str := a.Value.String()
			if strings.ContainsRune(str, '\x1b') {
				return slog.Attr{Key: a.Key, Value: slog.StringValue(stripAnsiCodes(str))}
			}
		case slog.KindAny:
			return slog.Attr{Key: a.Key, Value: slog.StringValue(fmt.Sprintf("%v", a.Value.Any()))}
		}
	}
	return a
}

// fastMultiHandler - optimised dual output
type fastMultiHandler struct {
	terminalHandler slog.Handler
	fileHandler     slog.Handler
}

func (h *fastMultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.terminalHandler.Enabled(ctx, level) || h.fileHandler.Enabled(ctx, level)
}

func (h *fastMultiHandler) Handle(ctx context.Context, record slog.Record) error {
	// Check detailed context once
	isDetailed := false
	if detailed := ctx.Value(DefaultDetailedCookie); detailed != nil {
		if d, ok := detailed.(bool); ok && d {
			isDetailed = true
		}
	}

	// Terminal output (unless detailed mode)
	if !isDetailed && h.terminalHandler.Enabled(ctx, record.Level) {
		if err := h.terminalHandler.Handle(ctx, record); err != nil {
			return err
		}
	}

	// File output
	if h.fileHandler.Enabled(ctx, record.Level) {
		return h.fileHandler.Handle(ctx, record)
	}

	return nil
}

func (h *fastMultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fastMultiHandler{
		terminalHandler: h.terminalHandler.WithAttrs(attrs),
		fileHandler:     h.fileHandler.WithAttrs(attrs),
	}
}

func (h *fastMultiHandler) WithGroup(name string) slog.Handler {
	return &fastMultiHandler{
		terminalHandler: h.terminalHandler.WithGroup(name),
		fileHandler:     h.fileHandler.WithGroup(name),
	}
}

// levelFromStored maps the stored 10-step numeric levels (0 not-set,
// 10 debug, 20 info, 30 warning, 40 error, 50 critical) onto slog levels.
// Not-set logs everything.
func levelFromStored(level int) slog.Level {
	switch {
	case level <= 0:
		return slog.LevelDebug - 4
	case level <= 10:
		return slog.LevelDebug
	case level <= 20:
		return slog.LevelInfo
	case level <= 30:
		return slog.LevelWarn
	case level <= 40:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

func convertToPTermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level < slog.LevelDebug:
		return pterm.LogLevelTrace
	case level < slog.LevelInfo:
		return pterm.LogLevelDebug
	case level < slog.LevelWarn:
		return pterm.LogLevelInfo
	case level < slog.LevelError:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}
