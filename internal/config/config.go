package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/solewatch/solewatch/internal/core/constants"
)

const (
	DefaultDataDir         = "./Userdata"
	DefaultLogDir          = "./Logs"
	DefaultProfilerAddress = "localhost:19841"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir:         DefaultDataDir,
			ShopsFile:       constants.FileShops,
			ConfigFile:      constants.FileConfig,
			MessengersFile:  constants.FileMessengers,
			ProductURLsFile: constants.FileProductURLs,
			ProxiesFile:     constants.FileProxies,
			UserAgentsFile:  constants.FileUserAgents,
		},
		Logging: LoggingConfig{
			Dir:        DefaultLogDir,
			Theme:      "default",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Events: EventsConfig{
			BufferSize: 100,
			QueueSize:  256,
			Workers:    2,
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Debounce: 500 * time.Millisecond,
		},
		App: AppConfig{
			ShutdownTimeout: 10 * time.Second,
		},
		Engineering: EngineeringConfig{
			ShowNerdStats:   false,
			ProfilerEnabled: false,
			ProfilerAddress: DefaultProfilerAddress,
		},
	}
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("SOLEWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, check if we have SOLEWATCH_CONFIG_FILE env var
		if configFile := os.Getenv("SOLEWATCH_CONFIG_FILE"); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.Filename = viper.ConfigFileUsed()

	return config, nil
}
