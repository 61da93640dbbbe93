package config

import (
	"flag"
	"os"

	"github.com/clinicdesk/identity/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string     HTTP bind address (e.g. ":5000")
//	-d string     PostgreSQL DSN, or "memory"
//	-s string     session token HMAC secret
//	-t duration   session lifetime (e.g. "168h")
//	-e string     environment ("development" | "production")
//	-f string     frontend base URL for reset links
//	-o string     comma-separated CORS origins
//	-r string     Redis address for rate limiting
//	-l int        rate limit, requests per minute per client
//	-x bool       trust X-Forwarded-For from a fronting proxy
//	-k string     SendGrid API key
//	-m string     sender address of outgoing email
//	-p duration   expired token purge interval
//
// Only these flags are read from os.Args, so -c/-config and flags owned by
// other components do not cause parse errors.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-e", "-f", "-o", "-r", "-l", "-x", "-k", "-m", "-p"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.FrontendURL, "f", config.FrontendURL, "frontend URL")
	fs.StringVar(&config.AllowedOrigins, "o", config.AllowedOrigins, "CORS origins")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.IntVar(&config.RateLimitPerMinute, "l", config.RateLimitPerMinute, "rate limit per minute")
	fs.BoolVar(&config.TrustProxy, "x", config.TrustProxy, "trust proxy forwarding headers")
	fs.StringVar(&config.SendGridAPIKey, "k", config.SendGridAPIKey, "sendgrid API key")
	fs.StringVar(&config.MailFrom, "m", config.MailFrom, "mail sender")
	fs.DurationVar(&config.PurgeInterval, "p", config.PurgeInterval, "expired token purge interval")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
