package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"visitgate/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MailConfig struct {
	Provider string `yaml:"provider"` // mailersend | dev
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

type StorageConfig struct {
	Provider  string `yaml:"provider"` // http | dev
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	PublicURL string `yaml:"public_url"`
}

type OtpConfig struct {
	CodeTTL        time.Duration `yaml:"code_ttl"`
	ResendCooldown time.Duration `yaml:"resend_cooldown"`
	SessionWindow  time.Duration `yaml:"session_window"`
}

type BillingConfig struct {
	CallbackKey  string `yaml:"callback_key"`
	CallbackPort int    `yaml:"callback_port"`
}

type SecurityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Log       LogConfig                  `yaml:"log"`
	HTTP      HTTPConfig                 `yaml:"http"`
	Database  DatabaseConfig             `yaml:"database"`
	Redis     RedisConfig                `yaml:"redis"`
	Mail      MailConfig                 `yaml:"mail"`
	Storage   StorageConfig              `yaml:"storage"`
	Otp       OtpConfig                  `yaml:"otp"`
	Billing   BillingConfig              `yaml:"billing"`
	Security  SecurityConfig             `yaml:"security"`
	Sweep     SweepConfig                `yaml:"sweep"`
	Plans     map[string]model.PlanQuota `yaml:"plans"`
	TrialDays int                        `yaml:"trial_days"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, applies defaults, and resolves the typed
// quota table.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Otp.CodeTTL <= 0 {
		cfg.Otp.CodeTTL = 10 * time.Minute
	}
	if cfg.Otp.ResendCooldown <= 0 {
		cfg.Otp.ResendCooldown = 2 * time.Minute
	}
	if cfg.Otp.SessionWindow <= 0 {
		cfg.Otp.SessionWindow = 30 * time.Minute
	}
	if cfg.Billing.CallbackPort <= 0 {
		cfg.Billing.CallbackPort = 8081
	}
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = 15 * time.Minute
	}
	if cfg.TrialDays <= 0 {
		cfg.TrialDays = 14
	}
	return &cfg, nil
}

// QuotaTable merges any configured overrides over the shipped plan policy.
func (c *Config) QuotaTable() model.QuotaTable {
	table := model.DefaultQuotaTable()
	for name, q := range c.Plans {
		table[model.NormalizePlan(name)] = q
	}
	return table
}
