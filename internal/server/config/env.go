package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads a .env file from the working directory when present (it
// never overrides variables already set in the process) and then overlays
// the recognised variables onto config.
func parseEnv(config *Config) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load .env: %w", err))
	}

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("DATABASE_URL", &config.DatabaseDSN)
	envString("JWT_SECRET", &config.SecretKey)
	envString("APP_ENV", &config.Environment)
	envString("FRONTEND_URL", &config.FrontendURL)
	envString("CORS_ORIGINS", &config.AllowedOrigins)
	envString("REDIS_ADDR", &config.RedisAddr)
	envString("SENDGRID_API_KEY", &config.SendGridAPIKey)
	envString("MAIL_FROM", &config.MailFrom)

	envDuration("SESSION_TTL", &config.SessionTTL)
	envDuration("VERIFICATION_CODE_TTL", &config.VerificationCodeTTL)
	envDuration("RESET_TOKEN_TTL", &config.ResetTokenTTL)
	envDuration("NOTIFY_TIMEOUT", &config.NotifyTimeout)
	envDuration("PURGE_INTERVAL", &config.PurgeInterval)

	if v, ok := os.LookupEnv("RATE_LIMIT_PER_MINUTE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err))
		}
		config.RateLimitPerMinute = n
	}
	if v, ok := os.LookupEnv("TRUST_PROXY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("TRUST_PROXY: %w", err))
		}
		config.TrustProxy = b
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}
