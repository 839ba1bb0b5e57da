// Package config loads engine.Config from a YAML file, the environment, and
// built-in defaults via viper, grounded on the teacher's
// internal/config/config.go LoadConfig/setDefaults/InitLogger shape.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hftcore/lobengine/internal/engine"
)

// FileConfig is the on-disk/env-bindable shape consumed by Load. It mirrors
// engine.Config's fields with mapstructure tags; ToEngineConfig translates
// it into the runtime engine.Config (whose BookFlavor enum and nested
// sub-configs aren't directly mapstructure-friendly).
type FileConfig struct {
	BookFlavor string `mapstructure:"book_flavor"` // "latched" | "lockfree"

	Risk struct {
		PositionLimit            float64 `mapstructure:"position_limit"`
		DailyPnLLimit            float64 `mapstructure:"daily_pnl_limit"`
		MaxOrderSize             float64 `mapstructure:"max_order_size"`
		MinOrderSize             float64 `mapstructure:"min_order_size"`
		MaxPriceDeviationPct     float64 `mapstructure:"max_price_deviation_pct"`
		MaxNotionalValue         float64 `mapstructure:"max_notional_value"`
		EnablePriceValidation    bool    `mapstructure:"enable_price_validation"`
		EnableSizeValidation     bool    `mapstructure:"enable_size_validation"`
		EnablePositionValidation bool    `mapstructure:"enable_position_validation"`
		EnablePnLValidation      bool    `mapstructure:"enable_pnl_validation"`
		EnableNotionalValidation bool    `mapstructure:"enable_notional_validation"`
	} `mapstructure:"risk"`

	Pipeline struct {
		Workers       int `mapstructure:"workers"`
		ChannelCap    int `mapstructure:"channel_cap"`
		MaxBatchSize  int `mapstructure:"max_batch_size"`
		MaxBatchDelayMs int `mapstructure:"max_batch_delay_ms"`
		RateLimit     float64 `mapstructure:"rate_limit"`
	} `mapstructure:"pipeline"`

	DefaultLevels int    `mapstructure:"default_levels"`
	LogLevel      string `mapstructure:"log_level"`
}

// Load reads configPath (or ./config.yaml / ./config/config.yaml /
// /etc/lobengine/config.yaml, plus LOBENGINE_-prefixed env overrides) into a
// FileConfig seeded with engine.DefaultConfig's values, the same
// defaults-then-override sequencing as the teacher's setDefaults+ReadInConfig
// pair.
func Load(configPath string) (FileConfig, error) {
	fc := defaultsFrom(engine.DefaultConfig())

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/lobengine")
	}
	v.AutomaticEnv()
	v.SetEnvPrefix("LOBENGINE")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fc, fmt.Errorf("config: read config file: %w", err)
		}
	}
	if err := v.Unmarshal(&fc); err != nil {
		return fc, fmt.Errorf("config: unmarshal: %w", err)
	}
	return fc, nil
}

func defaultsFrom(cfg engine.Config) FileConfig {
	var fc FileConfig
	fc.BookFlavor = "latched"
	fc.Risk.PositionLimit = cfg.Risk.PositionLimit
	fc.Risk.DailyPnLLimit = cfg.Risk.DailyPnLLimit
	fc.Risk.MaxOrderSize = cfg.Risk.Validation.MaxOrderSize
	fc.Risk.MinOrderSize = cfg.Risk.Validation.MinOrderSize
	fc.Risk.MaxPriceDeviationPct = cfg.Risk.Validation.MaxPriceDeviationPct
	fc.Risk.MaxNotionalValue = cfg.Risk.Validation.MaxNotionalValue
	fc.Risk.EnablePriceValidation = cfg.Risk.Validation.EnablePriceValidation
	fc.Risk.EnableSizeValidation = cfg.Risk.Validation.EnableSizeValidation
	fc.Risk.EnablePositionValidation = cfg.Risk.Validation.EnablePositionValidation
	fc.Risk.EnablePnLValidation = cfg.Risk.Validation.EnablePnLValidation
	fc.Risk.EnableNotionalValidation = cfg.Risk.Validation.EnableNotionalValidation
	fc.Pipeline.Workers = cfg.Pipeline.Workers
	fc.Pipeline.ChannelCap = cfg.Pipeline.ChannelCap
	fc.Pipeline.MaxBatchSize = cfg.Pipeline.Batch.MaxBatchSize
	fc.Pipeline.MaxBatchDelayMs = int(cfg.Pipeline.Batch.MaxBatchDelay.Milliseconds())
	fc.Pipeline.RateLimit = cfg.Pipeline.RateLimit
	fc.DefaultLevels = cfg.DefaultLevels
	fc.LogLevel = "info"
	return fc
}

// ToEngineConfig translates the loaded FileConfig back into an engine.Config,
// starting from engine.DefaultConfig so any field the file/env didn't touch
// keeps its runtime default.
func (fc FileConfig) ToEngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if fc.BookFlavor == "lockfree" {
		cfg.BookFlavor = engine.FlavorLockFree
	} else {
		cfg.BookFlavor = engine.FlavorLatched
	}
	cfg.Risk.PositionLimit = fc.Risk.PositionLimit
	cfg.Risk.DailyPnLLimit = fc.Risk.DailyPnLLimit
	cfg.Risk.Validation.MaxOrderSize = fc.Risk.MaxOrderSize
	cfg.Risk.Validation.MinOrderSize = fc.Risk.MinOrderSize
	cfg.Risk.Validation.MaxPriceDeviationPct = fc.Risk.MaxPriceDeviationPct
	cfg.Risk.Validation.MaxNotionalValue = fc.Risk.MaxNotionalValue
	cfg.Risk.Validation.EnablePriceValidation = fc.Risk.EnablePriceValidation
	cfg.Risk.Validation.EnableSizeValidation = fc.Risk.EnableSizeValidation
	cfg.Risk.Validation.EnablePositionValidation = fc.Risk.EnablePositionValidation
	cfg.Risk.Validation.EnablePnLValidation = fc.Risk.EnablePnLValidation
	cfg.Risk.Validation.EnableNotionalValidation = fc.Risk.EnableNotionalValidation
	if fc.Pipeline.Workers > 0 {
		cfg.Pipeline.Workers = fc.Pipeline.Workers
	}
	if fc.Pipeline.ChannelCap > 0 {
		cfg.Pipeline.ChannelCap = fc.Pipeline.ChannelCap
	}
	if fc.Pipeline.MaxBatchSize > 0 {
		cfg.Pipeline.Batch.MaxBatchSize = fc.Pipeline.MaxBatchSize
	}
	if fc.Pipeline.MaxBatchDelayMs > 0 {
		cfg.Pipeline.Batch.MaxBatchDelay = time.Duration(fc.Pipeline.MaxBatchDelayMs) * time.Millisecond
	}
	if fc.Pipeline.RateLimit > 0 {
		cfg.Pipeline.RateLimit = fc.Pipeline.RateLimit
	}
	if fc.DefaultLevels > 0 {
		cfg.DefaultLevels = fc.DefaultLevels
	}
	return cfg
}

// NewLogger builds a zap.Logger matching fc.LogLevel, grounded on the
// teacher's InitLogger.
func NewLogger(fc FileConfig) (*zap.Logger, error) {
	switch fc.LogLevel {
	case "debug":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
