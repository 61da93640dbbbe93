package config

import (
	"encoding/json"
	"os"

	"github.com/clinicdesk/identity/internal/flagx"
	"github.com/clinicdesk/identity/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept "15m"-style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr            string         `json:"http_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	SecretKey           string         `json:"secret_key"`
	SessionTTL          timex.Duration `json:"session_ttl"`
	VerificationCodeTTL timex.Duration `json:"verification_code_ttl"`
	ResetTokenTTL       timex.Duration `json:"reset_token_ttl"`
	Environment         string         `json:"environment"`
	FrontendURL         string         `json:"frontend_url"`
	AllowedOrigins      string         `json:"allowed_origins"`
	RedisAddr           string         `json:"redis_addr"`
	RateLimitPerMinute  int            `json:"rate_limit_per_minute"`
	TrustProxy          bool           `json:"trust_proxy"`
	SendGridAPIKey      string         `json:"sendgrid_api_key"`
	MailFrom            string         `json:"mail_from"`
	NotifyTimeout       timex.Duration `json:"notify_timeout"`
	PurgeInterval       timex.Duration `json:"purge_interval"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file leave the current value untouched. An unreadable or invalid
// file panics: starting with a half-applied config is worse than not starting.
func parseJson(config *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Environment, c.Environment)
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.AllowedOrigins, c.AllowedOrigins)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.SendGridAPIKey, c.SendGridAPIKey)
	setString(&config.MailFrom, c.MailFrom)

	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.VerificationCodeTTL.Duration != 0 {
		config.VerificationCodeTTL = c.VerificationCodeTTL.Duration
	}
	if c.ResetTokenTTL.Duration != 0 {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	if c.NotifyTimeout.Duration != 0 {
		config.NotifyTimeout = c.NotifyTimeout.Duration
	}
	if c.PurgeInterval.Duration != 0 {
		config.PurgeInterval = c.PurgeInterval.Duration
	}
	if c.RateLimitPerMinute != 0 {
		config.RateLimitPerMinute = c.RateLimitPerMinute
	}
	if c.TrustProxy {
		config.TrustProxy = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
