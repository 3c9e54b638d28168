package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bot         BotConfig         `yaml:"bot"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Store       StoreConfig       `yaml:"store"`
	Paths       PathsConfig       `yaml:"paths"`
	Delivery    DeliveryConfig    `yaml:"delivery"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

type BotConfig struct {
	Token       string `yaml:"token"`
	APIEndpoint string `yaml:"api_endpoint"`
	PollTimeout int    `yaml:"poll_timeout"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type GeminiConfig struct {
	APIKeys []string `yaml:"api_keys"`
	Model   string   `yaml:"model"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory" or "sqlite"
	Path    string `yaml:"path"`
}

type PathsConfig struct {
	Temp string `yaml:"temp"`
}

type DeliveryConfig struct {
	MessageLimit    int `yaml:"message_limit"`
	PageMargin      int `yaml:"page_margin"`
	TTLHours        int `yaml:"ttl_hours"`
	MinSummaryWords int `yaml:"min_summary_words"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Load reads and validates a yaml configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot.token is required")
	}
	if c.Whisper.ModelPath == "" {
		return fmt.Errorf("whisper.model_path is required")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the sqlite backend")
	}

	if c.Bot.APIEndpoint == "" {
		c.Bot.APIEndpoint = "https://api.telegram.org"
	}
	if c.Bot.PollTimeout == 0 {
		c.Bot.PollTimeout = 30
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "auto"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 4
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = os.TempDir()
	}
	if c.Delivery.MessageLimit == 0 {
		c.Delivery.MessageLimit = 4096
	}
	if c.Delivery.PageMargin == 0 {
		c.Delivery.PageMargin = 6
	}
	if c.Delivery.MessageLimit <= c.Delivery.PageMargin {
		return fmt.Errorf("delivery.message_limit must exceed delivery.page_margin")
	}
	if c.Delivery.TTLHours == 0 {
		c.Delivery.TTLHours = 24
	}
	if c.Delivery.MinSummaryWords == 0 {
		c.Delivery.MinSummaryWords = 40
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}

	return nil
}

// PageBudget is the maximum characters per delivered page. It stays below the
// transport's single-message ceiling to leave headroom for the continuation
// marker appended to non-final pages.
func (c *Config) PageBudget() int {
	return c.Delivery.MessageLimit - c.Delivery.PageMargin
}
