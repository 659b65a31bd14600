package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MMBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MMBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Tauros ──
	setStr(&cfg.Tauros.ApiKey, "MMBOT_TAUROS_API_KEY")
	setStr(&cfg.Tauros.ApiSecret, "MMBOT_TAUROS_API_SECRET")
	setStr(&cfg.Tauros.Environment, "MMBOT_TAUROS_ENVIRONMENT")
	setStr(&cfg.Tauros.BaseURL, "MMBOT_TAUROS_BASE_URL")
	setStr(&cfg.Tauros.WsURL, "MMBOT_TAUROS_WS_URL")

	// ── External venues ──
	setStr(&cfg.Bitso.BaseURL, "MMBOT_BITSO_BASE_URL")
	setStr(&cfg.OKX.BaseURL, "MMBOT_OKX_BASE_URL")

	// ── Bots ──
	setStr(&cfg.Bots.Source, "MMBOT_BOTS_SOURCE")
	setStr(&cfg.Bots.File, "MMBOT_BOTS_FILE")
	setStr(&cfg.Bots.RemoteBaseURL, "MMBOT_BOTS_REMOTE_BASE_URL")
	setInt(&cfg.Bots.RemoteLimit, "MMBOT_BOTS_REMOTE_LIMIT")

	// ── Pricing ──
	setFloat64(&cfg.Pricing.MinSpread, "MMBOT_PRICING_MIN_SPREAD")
	setStr(&cfg.Pricing.PriceDelta, "MMBOT_PRICING_PRICE_DELTA")
	setBool(&cfg.Pricing.Clamp, "MMBOT_PRICING_CLAMP")
	setStr(&cfg.Pricing.ClampTick, "MMBOT_PRICING_CLAMP_TICK")
	setStr(&cfg.Pricing.HomeMinNotional, "MMBOT_PRICING_HOME_MIN_NOTIONAL")
	setStr(&cfg.Pricing.ExternalMinNotional, "MMBOT_PRICING_EXTERNAL_MIN_NOTIONAL")
	setDuration(&cfg.Pricing.RetryDelay, "MMBOT_PRICING_RETRY_DELAY")
	setDuration(&cfg.Pricing.NotFundsBackoff, "MMBOT_PRICING_NOT_FUNDS_BACKOFF")
	setDuration(&cfg.Pricing.WarmupDelay, "MMBOT_PRICING_WARMUP_DELAY")

	// ── Notify ──
	setBool(&cfg.Notify.Enabled, "MMBOT_NOTIFY_ENABLED")
	setStr(&cfg.Notify.SMTPHost, "MMBOT_NOTIFY_SMTP_HOST")
	setInt(&cfg.Notify.SMTPPort, "MMBOT_NOTIFY_SMTP_PORT")
	setStr(&cfg.Notify.SenderEmail, "MMBOT_NOTIFY_SENDER_EMAIL")
	setStr(&cfg.Notify.SenderPassword, "MMBOT_NOTIFY_SENDER_PASSWORD")
	setStr(&cfg.Notify.ReceiverEmail, "MMBOT_NOTIFY_RECEIVER_EMAIL")
	setStr(&cfg.Notify.TelegramToken, "MMBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MMBOT_NOTIFY_TELEGRAM_CHAT_ID")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MMBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MMBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MMBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MMBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MMBOT_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "MMBOT_REDIS_TLS_ENABLED")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "MMBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
