// Package config defines engine configuration, loaded from a YAML file
// with environment variable overrides.
//
// Grounded on polymarket-mm's internal/config: same viper.New +
// SetConfigFile + AutomaticEnv load shape, same sensitive-field env
// override pattern, adapted from a market-making bot's wallet/API
// secrets to this engine's Redis and adapter credentials.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level engine configuration.
type Config struct {
	Mode      string          `mapstructure:"mode"` // "backtest" or "live"
	Venue     VenueConfig     `mapstructure:"venue"`
	FillModel FillModelConfig `mapstructure:"fill_model"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Adapter   AdapterConfig   `mapstructure:"adapter"`
}

// VenueConfig names the simulated or live venue and its instruments.
type VenueConfig struct {
	Name        string   `mapstructure:"name"`
	Instruments []string `mapstructure:"instruments"`
}

// FillModelConfig mirrors matching.FillModelConfig for config-file
// loading; Load leaves it as unmarshalled, and the cmd drivers build a
// matching.FillModelConfig from its fields.
type FillModelConfig struct {
	ProbFillAtLimit float64 `mapstructure:"prob_fill_at_limit"`
	ProbFillAtStop  float64 `mapstructure:"prob_fill_at_stop"`
	ProbSlippage    float64 `mapstructure:"prob_slippage"`
	Seed            int64   `mapstructure:"seed"`
}

// RiskConfig mirrors execution.RiskConfig's scalar fields as strings.
// Load does not parse them and the cmd drivers do not read them; both
// drivers use execution.DefaultRiskConfig().
type RiskConfig struct {
	MaxOrderSize     string `mapstructure:"max_order_size"`
	MaxOrderValue    string `mapstructure:"max_order_value"`
	MaxPositionSize  string `mapstructure:"max_position_size"`
	PriceBandPercent string `mapstructure:"price_band_percent"`
}

// StoreConfig configures the Redis-backed persistence layer.
type StoreConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures zerolog's global level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// AdapterConfig configures a live WebSocket adapter connection.
type AdapterConfig struct {
	URL               string        `mapstructure:"url"`
	ReconnectMinDelay time.Duration `mapstructure:"reconnect_min_delay"`
	ReconnectMaxDelay time.Duration `mapstructure:"reconnect_max_delay"`
}

// Load reads config from a YAML file with ALGO_* environment variable
// overrides (e.g. ALGO_STORE_ADDR overrides store.addr).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ALGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "backtest")
	v.SetDefault("fill_model.prob_fill_at_limit", 1.0)
	v.SetDefault("fill_model.prob_fill_at_stop", 1.0)
	v.SetDefault("fill_model.prob_slippage", 0.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("adapter.reconnect_min_delay", time.Second)
	v.SetDefault("adapter.reconnect_max_delay", 30*time.Second)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if pass := os.Getenv("ALGO_STORE_PASSWORD"); pass != "" {
		cfg.Store.Password = pass
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Mode != "backtest" && c.Mode != "live" {
		return fmt.Errorf("mode must be \"backtest\" or \"live\", got %q", c.Mode)
	}
	if c.Venue.Name == "" {
		return fmt.Errorf("venue.name is required")
	}
	if len(c.Venue.Instruments) == 0 {
		return fmt.Errorf("venue.instruments must list at least one instrument")
	}
	if c.Mode == "live" && c.Adapter.URL == "" {
		return fmt.Errorf("adapter.url is required in live mode")
	}
	return nil
}
