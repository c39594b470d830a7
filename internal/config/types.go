package config

import (
	"path/filepath"
	"time"
)

// Config holds all bootstrap configuration for the application. Runtime
// behaviour (scraper pacing, log levels, messenger channels) lives in the
// document stores instead and is owned by internal/adapter/store.
type Config struct {
	Filename    string            `yaml:"-" mapstructure:"-"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Events      EventsConfig      `yaml:"events" mapstructure:"events"`
	Watcher     WatcherConfig     `yaml:"watcher" mapstructure:"watcher"`
	App         AppConfig         `yaml:"app" mapstructure:"app"`
	Engineering EngineeringConfig `yaml:"engineering" mapstructure:"engineering"`
}

// StoreConfig locates the userdata directory and the well-known files
// inside it.
type StoreConfig struct {
	DataDir         string `yaml:"data_dir" mapstructure:"data_dir"`
	ShopsFile       string `yaml:"shops_file" mapstructure:"shops_file"`
	ConfigFile      string `yaml:"config_file" mapstructure:"config_file"`
	MessengersFile  string `yaml:"messengers_file" mapstructure:"messengers_file"`
	ProductURLsFile string `yaml:"product_urls_file" mapstructure:"product_urls_file"`
	ProxiesFile     string `yaml:"proxies_file" mapstructure:"proxies_file"`
	UserAgentsFile  string `yaml:"user_agents_file" mapstructure:"user_agents_file"`
}

func (s *StoreConfig) ShopsPath() string       { return filepath.Join(s.DataDir, s.ShopsFile) }
func (s *StoreConfig) ConfigPath() string      { return filepath.Join(s.DataDir, s.ConfigFile) }
func (s *StoreConfig) MessengersPath() string  { return filepath.Join(s.DataDir, s.MessengersFile) }
func (s *StoreConfig) ProductURLsPath() string { return filepath.Join(s.DataDir, s.ProductURLsFile) }
func (s *StoreConfig) ProxiesPath() string     { return filepath.Join(s.DataDir, s.ProxiesFile) }
func (s *StoreConfig) UserAgentsPath() string  { return filepath.Join(s.DataDir, s.UserAgentsFile) }

// LoggingConfig holds the log sinks' theme and rotation knobs. Sink switches
// and levels come from the runtime config store.
type LoggingConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Theme      string `yaml:"theme" mapstructure:"theme"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
}

// EventsConfig sizes the internal scrape event bus
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
	QueueSize  int `yaml:"queue_size" mapstructure:"queue_size"`
	Workers    int `yaml:"workers" mapstructure:"workers"`
}

// WatcherConfig controls the product URL file watcher
type WatcherConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// AppConfig holds lifecycle knobs
type AppConfig struct {
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// EngineeringConfig holds development/debugging configuration
type EngineeringConfig struct {
	ShowNerdStats   bool   `yaml:"show_nerdstats" mapstructure:"show_nerdstats"`
	ProfilerEnabled bool   `yaml:"profiler_enabled" mapstructure:"profiler_enabled"`
	ProfilerAddress string `yaml:"profiler_address" mapstructure:"profiler_address"`
}
