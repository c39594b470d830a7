package domain

import (
	"time"

	"github.com/solewatch/solewatch/internal/core/constants"
)

// Numeric log levels as stored in config records.
const (
	LevelNotSet   = 0
	LevelDebug    = 10
	LevelInfo     = 20
	LevelWarning  = 30
	LevelError    = 40
	LevelCritical = 50
)

// RequestSettings bound one kind of outgoing call, either a page fetch or a
// webhook post.
type RequestSettings struct {
	Timeout        time.Duration
	MaxRetries     int
	UseRandomProxy bool
}

// ScraperSettings drives pacing and request behaviour of one scrape loop.
// Field tags mirror the stored record keys, quirks included.
type ScraperSettings struct {
	IterSleepFromScnds  int     `json:"iterSleepFromScnds"`
	IterSleepToScnds    int     `json:"iterSleepToScnds"`
	IterSleepSteps      float64 `json:"iterSleepSteps"`
	FetchTimeoutScnds   int     `json:"fetchTimeoutScnds"`
	FetchMaxRetries     int     `json:"fetchMaxRetries"`
	FetchUseRandomProxy bool    `json:"fetchUseRandomProxy"`
	PostTimeoutScnds    int     `json:"postTimeoutScnds"`
	PostMaxRetries      int     `json:"postMaxRetries"`
	PostUseRandomProxy  bool    `json:"postUseRandomProxies"`
}

// RescueScraperSettings is the hard coded fallback when the config store has
// no usable scraper entry.
func RescueScraperSettings() ScraperSettings {
	return ScraperSettings{
		IterSleepFromScnds:  constants.RescueIterSleepFromScnds,
		IterSleepToScnds:    constants.RescueIterSleepToScnds,
		IterSleepSteps:      constants.RescueIterSleepSteps,
		FetchTimeoutScnds:   constants.RescueFetchTimeoutScnds,
		FetchMaxRetries:     constants.RescueFetchMaxRetries,
		FetchUseRandomProxy: constants.RescueFetchUseRandomProxy,
		PostTimeoutScnds:    constants.RescuePostTimeoutScnds,
		PostMaxRetries:      constants.RescuePostMaxRetries,
		PostUseRandomProxy:  constants.RescuePostUseRandomProxy,
	}
}

func (s ScraperSettings) FetchSettings() RequestSettings {
	return RequestSettings{
		Timeout:        time.Duration(s.FetchTimeoutScnds) * time.Second,
		MaxRetries:     s.FetchMaxRetries,
		UseRandomProxy: s.FetchUseRandomProxy,
	}
}

func (s ScraperSettings) PostSettings() RequestSettings {
	return RequestSettings{
		Timeout:        time.Duration(s.PostTimeoutScnds) * time.Second,
		MaxRetries:     s.PostMaxRetries,
		UseRandomProxy: s.PostUseRandomProxy,
	}
}

// IterSleep reports the stepped-random pause bounds between iterations, in
// seconds.
func (s ScraperSettings) IterSleep() (from, to, step float64) {
	return float64(s.IterSleepFromScnds), float64(s.IterSleepToScnds), s.IterSleepSteps
}

// LoggerSettings is the stored logging configuration.
type LoggerSettings struct {
	IsConsoleLogging bool `json:"isConsoleLogging"`
	IsFileLogging    bool `json:"isFileLogging"`
	ConsoleLogLevel  int  `json:"consoleLogLevel"`
	FileLogLevel     int  `json:"fileLogLevel"`
}

// RescueLoggerSettings is the hard coded fallback when the config store has
// no usable logger entry: console on at info, file off.
func RescueLoggerSettings() LoggerSettings {
	return LoggerSettings{
		IsConsoleLogging: true,
		IsFileLogging:    false,
		ConsoleLogLevel:  LevelInfo,
		FileLogLevel:     LevelNotSet,
	}
}

// MessengerSettings configures one kind of webhook message. Field tags
// mirror the stored record keys.
type MessengerSettings struct {
	ConfigName     string `json:"configName"`
	User           string `json:"user"`
	Token          string `json:"token"`
	Timeout        int    `json:"timeout"`
	MaxRetries     int    `json:"maxRetries"`
	UseRandomProxy bool   `json:"useRandomProxy"`
	Username       string `json:"username"`
}

func (m MessengerSettings) RequestSettings() RequestSettings {
	return RequestSettings{
		Timeout:        time.Duration(m.Timeout) * time.Second,
		MaxRetries:     m.MaxRetries,
		UseRandomProxy: m.UseRandomProxy,
	}
}
