// Package server wires the identity service together: configuration, the
// credential store, the account flows, email delivery and the HTTP API. It
// also handles signals and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/clinicdesk/identity/internal/logging"
	"github.com/clinicdesk/identity/internal/server/auth"
	"github.com/clinicdesk/identity/internal/server/config"
	"github.com/clinicdesk/identity/internal/server/httpserver"
	"github.com/clinicdesk/identity/internal/server/notify"
	"github.com/clinicdesk/identity/internal/server/repositories/repomanager"
	"github.com/clinicdesk/identity/internal/server/services"
	"github.com/redis/go-redis/v9"
)

const drainTimeout = 15 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	dispatcher  *notify.Dispatcher
	redis       *redis.Client
	janitor     *services.Janitor
	http        *httpserver.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.IsProduction())

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rm, err := repomanager.NewRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var mailer notify.Notifier
	if c.SendGridAPIKey != "" {
		mailer = notify.NewSendGridNotifier(c.SendGridAPIKey, c.MailFrom)
	} else {
		logger.Warn(ctx, "no SendGrid API key, emails are logged instead of sent")
		mailer = notify.NewLogNotifier(logger, !c.IsProduction())
	}
	dispatcher := notify.NewDispatcher(mailer, logger, c.NotifyTimeout)

	sessions := auth.NewSessionManager([]byte(c.SecretKey), c.SessionTTL, c.IsProduction())
	svc := services.NewAuthService(rm, auth.NewBcryptHasher(),
		auth.NewTokenIssuer(c.VerificationCodeTTL, c.ResetTokenTTL),
		sessions, dispatcher, logger, c.FrontendURL)

	app := &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		dispatcher:  dispatcher,
		janitor:     services.NewJanitor(rm, c.PurgeInterval, logger),
	}

	opts := httpserver.Options{
		Address:        c.HTTPAddr,
		AllowedOrigins: c.Origins(),
		RatePerMinute:  c.RateLimitPerMinute,
		TrustProxy:     c.TrustProxy,
	}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis unreachable, rate limiting fails open until it recovers", "error", err)
		}
		opts.Limiter = httpserver.NewRedisCounter(app.redis)
	}
	app.http = httpserver.NewServer(opts, logger, svc, sessions)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or the HTTP server fails,
// then drains pending email deliveries and releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server", "error", err)
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx)
	}()

	wg.Wait()
	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := app.dispatcher.Wait(ctx); err != nil {
		app.logger.Warn(ctx, "pending emails abandoned", "error", err)
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close", "error", err)
		}
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Warn(ctx, "database close", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
