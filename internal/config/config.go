// Package config manages application configuration from default values,
// an optional config.yaml file, and TRIPLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps all configuration loading and validation failures.
var ErrConfiguration = errors.New("configuration error")

// Config holds all application settings. Values can be set in config.yaml
// or via environment variables prefixed with TRIPLOG (dots become
// underscores, e.g. TRIPLOG_TELEGRAM_TOKEN).
type Config struct {
	LogLevel  string `mapstructure:"log_level"  validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json text"`

	ListenAddr string `mapstructure:"listen_addr" validate:"required"`
	DBPath     string `mapstructure:"db_path"     validate:"required"`

	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// TelegramConfig holds the Telegram bot credentials and webhook settings.
// Token and WebhookBaseURL are only needed when RegisterWebhook is set;
// WebhookSecret additionally gates inbound webhook requests when non-empty.
type TelegramConfig struct {
	Token           string `mapstructure:"token"`
	WebhookSecret   string `mapstructure:"webhook_secret"`
	WebhookBaseURL  string `mapstructure:"webhook_base_url" validate:"omitempty,url"`
	RegisterWebhook bool   `mapstructure:"register_webhook"`
}

// MaintenanceConfig controls the scheduled database maintenance job.
type MaintenanceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required"`
}

// Load reads configuration from defaults, config.yaml (optional), and the
// environment, then validates it.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRIPLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
		// Missing config file is fine, defaults and env cover everything.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// Validate checks struct tags plus the cross-field webhook requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Telegram.RegisterWebhook {
		if c.Telegram.Token == "" {
			return errors.New("telegram.token is required when telegram.register_webhook is enabled")
		}
		if c.Telegram.WebhookBaseURL == "" {
			return errors.New("telegram.webhook_base_url is required when telegram.register_webhook is enabled")
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "triplog.db")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.webhook_base_url", "")
	v.SetDefault("telegram.register_webhook", false)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "0 0 3 * * *")
}
