package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type BenchmarkConfig struct {
	NumOrders   int     `yaml:"num_orders"`
	BatchSize   int     `yaml:"batch_size"`
	MinPrice    int64   `yaml:"min_price"`
	MaxPrice    int64   `yaml:"max_price"`
	MaxQty      int64   `yaml:"max_qty"`
	CancelRatio float64 `yaml:"cancel_ratio"`
	ModifyRatio float64 `yaml:"modify_ratio"`
}

type AppConfig struct {
	ServiceName  string           `yaml:"service_name"`
	LogLevel     string           `yaml:"log_level"`
	TickRuleFile string           `yaml:"tick_rule_file"`
	Benchmark    *BenchmarkConfig `yaml:"benchmark"`
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	return &AppConfig{
		ServiceName: "lob-benchmark",
		LogLevel:    "info",
		Benchmark: &BenchmarkConfig{
			NumOrders:   1_000_000,
			BatchSize:   16,
			MinPrice:    10_000,
			MaxPrice:    20_000,
			MaxQty:      100,
			CancelRatio: 0.05,
			ModifyRatio: 0.05,
		},
	}
}

// Load reads the yaml config, expanding environment variables, and
// validates the benchmark section. An empty path falls back to the
// CONFIG_FILE environment variable.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	b := c.Benchmark
	if b == nil {
		return fmt.Errorf("benchmark section missing")
	}
	if b.NumOrders <= 0 || b.BatchSize <= 0 {
		return fmt.Errorf("num_orders and batch_size must be positive")
	}
	if b.MinPrice <= 0 || b.MaxPrice < b.MinPrice {
		return fmt.Errorf("price range %d..%d invalid", b.MinPrice, b.MaxPrice)
	}
	if b.MaxQty <= 0 {
		return fmt.Errorf("max_qty must be positive")
	}
	if b.CancelRatio < 0 || b.ModifyRatio < 0 || b.CancelRatio+b.ModifyRatio >= 1 {
		return fmt.Errorf("cancel_ratio %v and modify_ratio %v must be non-negative and sum below 1", b.CancelRatio, b.ModifyRatio)
	}
	return nil
}
