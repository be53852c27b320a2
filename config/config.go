package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// DateLayout is the format of start_date.
const DateLayout = "2006-01-02"

// Config represents a complete backtest configuration
type Config struct {
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	Evaluation EvaluationConfig `json:"evaluation" yaml:"evaluation" mapstructure:"evaluation"`
	Data       DataConfig       `json:"data" yaml:"data" mapstructure:"data"`
	Journal    JournalConfig    `json:"journal" yaml:"journal" mapstructure:"journal"`
}

// StrategyConfig names the rule and its moving average windows
type StrategyConfig struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"` // "sma-cross" or "noop"
	ShortWindow int    `json:"short_window" yaml:"short_window" mapstructure:"short_window"`
	LongWindow  int    `json:"long_window" yaml:"long_window" mapstructure:"long_window"`
}

// EvaluationConfig controls how each series is split and how the universe
// is processed
type EvaluationConfig struct {
	SplitFraction float64 `json:"split_fraction" yaml:"split_fraction" mapstructure:"split_fraction"`
	StartDate     string  `json:"start_date,omitempty" yaml:"start_date,omitempty" mapstructure:"start_date"`
	Workers       int     `json:"workers" yaml:"workers" mapstructure:"workers"`
	TopN          int     `json:"top_n" yaml:"top_n" mapstructure:"top_n"`
}

// DataConfig points at the inputs produced by the data collector
type DataConfig struct {
	PricesFile   string `json:"prices_file" yaml:"prices_file" mapstructure:"prices_file"`
	UniverseFile string `json:"universe_file,omitempty" yaml:"universe_file,omitempty" mapstructure:"universe_file"`
}

// JournalConfig contains result persistence parameters
type JournalConfig struct {
	Type        string `json:"type" yaml:"type" mapstructure:"type"` // "none", "csv" or "sqlite"
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path"`
	ResultsFile string `json:"results_file,omitempty" yaml:"results_file,omitempty" mapstructure:"results_file"`
}

// Start parses StartDate. An empty date is the zero time.
func (e EvaluationConfig) Start() (time.Time, error) {
	if strings.TrimSpace(e.StartDate) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(e.StartDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("evaluation.start_date %q: %w", e.StartDate, ErrInvalidConfiguration)
	}
	return t, nil
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays every key v has a value for (SMACROSS_* environment
// variables, bound flags) on top of c, then validates the result.
func (c *Config) ApplyEnv(v *viper.Viper) error {
	if v.IsSet("strategy.name") {
		c.Strategy.Name = v.GetString("strategy.name")
	}
	if v.IsSet("strategy.short_window") {
		c.Strategy.ShortWindow = v.GetInt("strategy.short_window")
	}
	if v.IsSet("strategy.long_window") {
		c.Strategy.LongWindow = v.GetInt("strategy.long_window")
	}
	if v.IsSet("evaluation.split_fraction") {
		c.Evaluation.SplitFraction = v.GetFloat64("evaluation.split_fraction")
	}
	if v.IsSet("evaluation.start_date") {
		c.Evaluation.StartDate = v.GetString("evaluation.start_date")
	}
	if v.IsSet("evaluation.workers") {
		c.Evaluation.Workers = v.GetInt("evaluation.workers")
	}
	if v.IsSet("evaluation.top_n") {
		c.Evaluation.TopN = v.GetInt("evaluation.top_n")
	}
	if v.IsSet("data.prices_file") {
		c.Data.PricesFile = v.GetString("data.prices_file")
	}
	if v.IsSet("data.universe_file") {
		c.Data.UniverseFile = v.GetString("data.universe_file")
	}
	if v.IsSet("journal.type") {
		c.Journal.Type = v.GetString("journal.type")
	}
	if v.IsSet("journal.db_path") {
		c.Journal.DBPath = v.GetString("journal.db_path")
	}
	if v.IsSet("journal.results_file") {
		c.Journal.ResultsFile = v.GetString("journal.results_file")
	}
	return c.Validate()
}

// NewViper returns a viper instance reading SMACROSS_* variables, where
// SMACROSS_STRATEGY_SHORT_WINDOW maps to strategy.short_window.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SMACROSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"strategy.name", "strategy.short_window", "strategy.long_window",
		"evaluation.split_fraction", "evaluation.start_date", "evaluation.workers", "evaluation.top_n",
		"data.prices_file", "data.universe_file",
		"journal.type", "journal.db_path", "journal.results_file",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Strategy.Name {
	case "", "sma-cross", "noop":
	default:
		return fmt.Errorf("strategy.name must be 'sma-cross' or 'noop': %w", ErrInvalidConfiguration)
	}
	if c.Strategy.ShortWindow <= 0 || c.Strategy.LongWindow <= 0 {
		return fmt.Errorf("strategy windows must be positive: %w", ErrInvalidConfiguration)
	}
	if c.Strategy.ShortWindow >= c.Strategy.LongWindow {
		return fmt.Errorf("strategy.short_window must be less than strategy.long_window: %w", ErrInvalidConfiguration)
	}
	f := c.Evaluation.SplitFraction
	if math.IsNaN(f) || f <= 0 || f >= 1 {
		return fmt.Errorf("evaluation.split_fraction must be between 0 and 1: %w", ErrInvalidConfiguration)
	}
	if _, err := c.Evaluation.Start(); err != nil {
		return err
	}
	if c.Evaluation.Workers < 0 {
		return fmt.Errorf("evaluation.workers must not be negative: %w", ErrInvalidConfiguration)
	}
	if c.Evaluation.TopN < 0 {
		return fmt.Errorf("evaluation.top_n must not be negative: %w", ErrInvalidConfiguration)
	}
	switch c.Journal.Type {
	case "none", "":
	case "csv":
		if c.Journal.ResultsFile == "" {
			return fmt.Errorf("journal results_file required for CSV type: %w", ErrInvalidConfiguration)
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type: %w", ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite': %w", ErrInvalidConfiguration)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Strategy: StrategyConfig{
			Name:        "sma-cross",
			ShortWindow: 50,
			LongWindow:  100,
		},
		Evaluation: EvaluationConfig{
			SplitFraction: 0.6,
			StartDate:     "2020-01-01",
			TopN:          5,
		},
		Data: DataConfig{
			PricesFile: "./prices.csv",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./smacross.sqlite",
		},
	}
}
