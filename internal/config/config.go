// Package config defines the top-level configuration for the market-maker
// bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MMBOT_* environment variables.
type Config struct {
	Tauros   TaurosConfig  `toml:"tauros"`
	Bitso    BitsoConfig   `toml:"bitso"`
	OKX      OKXConfig     `toml:"okx"`
	Bots     BotsConfig    `toml:"bots"`
	Pricing  PricingConfig `toml:"pricing"`
	Notify   NotifyConfig  `toml:"notify"`
	Redis    RedisConfig   `toml:"redis"`
	LogLevel string        `toml:"log_level"`
}

// TaurosConfig holds home-venue credentials and endpoints. When BaseURL or
// WsURL are empty they are derived from Environment.
type TaurosConfig struct {
	ApiKey      string `toml:"api_key"`
	ApiSecret   string `toml:"api_secret"`
	Environment string `toml:"environment"` // "prod" or "staging"
	BaseURL     string `toml:"base_url"`
	WsURL       string `toml:"ws_url"`
}

// Production reports whether the home venue should be hit in production.
func (t TaurosConfig) Production() bool { return t.Environment == "prod" }

// BitsoConfig holds the Bitso public API endpoint.
type BitsoConfig struct {
	BaseURL string `toml:"base_url"`
}

// OKXConfig holds the OKX public API endpoint.
type OKXConfig struct {
	BaseURL string `toml:"base_url"`
}

// BotsConfig selects where bot definitions are loaded from: a local JSON
// file or a remote per-index document store.
type BotsConfig struct {
	Source        string `toml:"source"` // "file" or "remote"
	File          string `toml:"file"`
	RemoteBaseURL string `toml:"remote_base_url"`
	RemoteLimit   int    `toml:"remote_limit"`
}

// PricingConfig holds engine-wide pricing and cadence parameters. Monetary
// fields are decimal strings to keep exact values out of binary floats.
type PricingConfig struct {
	MinSpread           float64  `toml:"min_spread"`            // percent, used when a bot config omits spread
	PriceDelta          string   `toml:"price_delta"`           // greedy outbid tick, quote units
	Clamp               bool     `toml:"clamp"`                 // non-greedy anti-cross clamp policy
	ClampTick           string   `toml:"clamp_tick"`            // clamp shift, quote units
	HomeMinNotional     string   `toml:"home_min_notional"`     // thin-level filter, home venue
	ExternalMinNotional string   `toml:"external_min_notional"` // thin-level filter, external venues
	RetryDelay          duration `toml:"retry_delay"`           // transient query failure backoff
	NotFundsBackoff     duration `toml:"not_funds_backoff"`     // insufficient-funds backoff
	WarmupDelay         duration `toml:"warmup_delay"`          // feed warm-up before workers start
}

// NotifyConfig holds notification channel settings. SMTP carries the funds
// status e-mails; Telegram is an optional extra channel.
type NotifyConfig struct {
	Enabled        bool   `toml:"enabled"`
	SMTPHost       string `toml:"smtp_host"`
	SMTPPort       int    `toml:"smtp_port"`
	SenderEmail    string `toml:"sender_email"`
	SenderPassword string `toml:"sender_password"`
	ReceiverEmail  string `toml:"receiver_email"`
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID string `toml:"telegram_chat_id"`
}

// RedisConfig holds the optional order-book mirror settings. When enabled,
// every snapshot is also published to Redis for external dashboards.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "3s", "10m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "3s" or "10m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values. These
// match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Tauros: TaurosConfig{
			Environment: "staging",
		},
		Bitso: BitsoConfig{
			BaseURL: "https://api.bitso.com",
		},
		OKX: OKXConfig{
			BaseURL: "https://www.okx.com",
		},
		Bots: BotsConfig{
			Source:      "file",
			File:        "robots.json",
			RemoteLimit: 50,
		},
		Pricing: PricingConfig{
			MinSpread:           1.5,
			PriceDelta:          "1",
			Clamp:               true,
			ClampTick:           "0.01",
			HomeMinNotional:     "200",
			ExternalMinNotional: "500",
			RetryDelay:          duration{3 * time.Second},
			NotFundsBackoff:     duration{10 * time.Minute},
			WarmupDelay:         duration{3 * time.Second},
		},
		Notify: NotifyConfig{
			SMTPPort: 465,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found. Missing credentials are a
// fatal configuration error; the process must not start without them.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Tauros credentials
	if c.Tauros.ApiKey == "" || c.Tauros.ApiSecret == "" {
		errs = append(errs, "tauros: api_key and api_secret must be set")
	}
	if c.Tauros.Environment != "prod" && c.Tauros.Environment != "staging" {
		errs = append(errs, fmt.Sprintf("tauros: environment must be \"prod\" or \"staging\", got %q", c.Tauros.Environment))
	}

	// Bot source
	switch c.Bots.Source {
	case "file":
		if c.Bots.File == "" {
			errs = append(errs, "bots: file must be set when source is \"file\"")
		}
	case "remote":
		if c.Bots.RemoteBaseURL == "" {
			errs = append(errs, "bots: remote_base_url must be set when source is \"remote\"")
		}
		if c.Bots.RemoteLimit < 1 {
			errs = append(errs, "bots: remote_limit must be >= 1")
		}
	default:
		errs = append(errs, fmt.Sprintf("bots: source must be \"file\" or \"remote\", got %q", c.Bots.Source))
	}

	// Pricing
	if c.Pricing.MinSpread < 0 {
		errs = append(errs, "pricing: min_spread must be >= 0")
	}
	if c.Pricing.RetryDelay.Duration <= 0 {
		errs = append(errs, "pricing: retry_delay must be > 0")
	}
	if c.Pricing.NotFundsBackoff.Duration <= 0 {
		errs = append(errs, "pricing: not_funds_backoff must be > 0")
	}

	// Notify
	if c.Notify.Enabled {
		hasSMTP := c.Notify.SMTPHost != "" && c.Notify.SenderEmail != "" && c.Notify.ReceiverEmail != ""
		hasTelegram := c.Notify.TelegramToken != "" && c.Notify.TelegramChatID != ""
		if !hasSMTP && !hasTelegram {
			errs = append(errs, "notify: enabled but no channel configured (smtp_host/sender_email/receiver_email or telegram_token/telegram_chat_id)")
		}
		if c.Notify.SMTPPort <= 0 || c.Notify.SMTPPort > 65535 {
			errs = append(errs, fmt.Sprintf("notify: smtp_port must be 1-65535, got %d", c.Notify.SMTPPort))
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
