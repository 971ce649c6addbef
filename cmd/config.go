package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Engine   EngineConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// EngineConfig holds detector settings. The defaults match the engine's.
type EngineConfig struct {
	DuplicateThreshold int    `mapstructure:"duplicate_threshold"`
	DuplicateDayWindow int    `mapstructure:"duplicate_day_window"`
	WashSaleWindowDays int    `mapstructure:"wash_sale_window_days"`
	Method             string `mapstructure:"method"`
}

// LoadConfig reads configuration from file and env. Env var overrides use
// prefix PFL_, so PFL_DATABASE_PATH points at another database.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "pfl", "pfl.db"))
	v.SetDefault("engine.duplicate_threshold", 80)
	v.SetDefault("engine.duplicate_day_window", 3)
	v.SetDefault("engine.wash_sale_window_days", 30)
	v.SetDefault("engine.method", "FIFO")

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("PFL_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "pfl"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PFL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
