package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "comfortlybot/core/config"
	coredatabase "comfortlybot/core/database"
)

// BotConfig holds the Comfortly-specific settings the flows render into
// messages. All values are opaque to the state machine.
type BotConfig struct {
	PaymentLink       string `yaml:"payment_link" envconfig:"PAYMENT_LINK"`
	SubscriptionPrice string `yaml:"subscription_price" envconfig:"SUBSCRIPTION_PRICE"`
	BankDetails       string `yaml:"bank_details" envconfig:"BANK_DETAILS"`
	CallBaseURL       string `yaml:"call_base_url" envconfig:"CALL_BASE_URL"`
	SupportEmail      string `yaml:"support_email" envconfig:"SUPPORT_EMAIL"`
}

// HealthConfig configures the keep-alive HTTP listener.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config aggregates core, database, and bot configuration from one YAML file
// with environment overrides.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Bot      BotConfig           `yaml:"bot"`
	Health   HealthConfig        `yaml:"health"`
}

// CoreConfig exposes the embedded core configuration for the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads configuration from a YAML file and environment variables, then
// validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalizeBot(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeBot(cfg *Config) error {
	if cfg.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram.admin_id is required")
	}
	if strings.TrimSpace(cfg.Bot.PaymentLink) == "" {
		return fmt.Errorf("bot.payment_link is required")
	}
	if strings.TrimSpace(cfg.Bot.BankDetails) == "" {
		return fmt.Errorf("bot.bank_details is required")
	}
	if cfg.Bot.SubscriptionPrice == "" {
		cfg.Bot.SubscriptionPrice = "10,000 / month"
	}
	if cfg.Bot.CallBaseURL == "" {
		cfg.Bot.CallBaseURL = "https://comfortly.com/call"
	}
	if cfg.Bot.SupportEmail == "" {
		cfg.Bot.SupportEmail = "support@comfortly.com"
	}
	if cfg.Health.Listen == "" {
		cfg.Health.Listen = ":3000"
	}
	return nil
}
