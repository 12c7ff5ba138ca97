package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"studylog/internal/store"
)

// Config holds the complete application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	User     UserConfig     `mapstructure:"user"`
	UI       UIConfig       `mapstructure:"ui"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UserConfig struct {
	ID string `mapstructure:"id"`
}

type UIConfig struct {
	// StopwatchTickMs is the refresh cadence of the primary stopwatch
	// face; other views tick at one second.
	StopwatchTickMs int `mapstructure:"stopwatch_tick_ms"`
}

// Load reads the config file at configPath (defaults apply when it does not
// exist) plus STUDYLOG_* environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("STUDYLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
		// No config file: defaults and environment only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.User.ID == "" {
		return nil, fmt.Errorf("user.id must not be empty")
	}
	if cfg.UI.StopwatchTickMs <= 0 {
		return nil, fmt.Errorf("ui.stopwatch_tick_ms must be positive")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) error {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return fmt.Errorf("resolve default db path: %w", err)
	}

	v.SetDefault("database.path", dbPath)
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.file", "")
	v.SetDefault("user.id", "default")
	v.SetDefault("ui.stopwatch_tick_ms", 100)
	return nil
}

// DefaultConfigPath returns ~/.config/studylog/config.yaml.
func DefaultConfigPath() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(cfg, "studylog", "config.yaml")
}
