package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/authflow/internal/config"
	"github.com/iliyamo/authflow/internal/database"
	"github.com/iliyamo/authflow/internal/handler"
	"github.com/iliyamo/authflow/internal/logging"
	"github.com/iliyamo/authflow/internal/middleware"
	"github.com/iliyamo/authflow/internal/notify"
	"github.com/iliyamo/authflow/internal/queue"
	"github.com/iliyamo/authflow/internal/repository"
	"github.com/iliyamo/authflow/internal/router"
	"github.com/iliyamo/authflow/internal/service"
	"github.com/iliyamo/authflow/internal/utils"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, logger logging.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	dispatch, closeDispatch := openDispatcher(ctx, cfg, logger)
	defer closeDispatch()

	sessions := utils.NewSessionIssuer(cfg.JWTSecret)
	svc := service.NewAccountService(store, utils.NewBcryptHasher(cfg.BcryptCost), dispatch, sessions,
		service.WithLogger(logger.With("component", "account")),
		service.WithPhoneRegion(cfg.PhoneDefaultRegion),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger.With("component", "http")))
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(svc), sessions)

	addr := ":" + cfg.Port
	logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver, "dispatch", cfg.DispatchDriver)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down")
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, logger logging.Logger) (repository.AccountStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn(ctx, "using in-memory account store; data is lost on restart")
		return repository.NewMemoryAccountStore(), func() {}, nil

	case config.StoreRedis:
		rdb, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisAccountStore(rdb, ""), func() { _ = rdb.Close() }, nil

	default:
		db, err := database.Open(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql: %w", err)
		}
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return repository.NewMySQLAccountStore(db), func() { _ = db.Close() }, nil
	}
}

// newSender picks real transports when credentials are configured and falls
// back to the dispatch log file otherwise.
func newSender(cfg config.Config) notify.Sender {
	file := notify.NewFileSender("")
	split := notify.Split{Email: file, SMS: file}
	if cfg.SMTP.Enabled() {
		split.Email = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}
	if cfg.Twilio.Enabled() {
		split.SMS = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From)
	}
	return split
}

// openDispatcher returns the service's Dispatcher.  With the amqp driver the
// delivery consumer optionally runs in this process until ctx is cancelled.
func openDispatcher(ctx context.Context, cfg config.Config, logger logging.Logger) (service.Dispatcher, func()) {
	sender := newSender(cfg)
	if cfg.DispatchDriver != config.DispatchAMQP {
		return notify.NewLogDispatcher(cfg.FrontendURL, sender), func() {}
	}

	pub := queue.NewPublisher(cfg.RabbitMQURL, cfg.FrontendURL, logger.With("component", "publisher"))
	if cfg.DispatchConsumer {
		consumer := queue.NewConsumer(cfg.RabbitMQURL, sender, logger.With("component", "consumer"))
		go func() { _ = consumer.Run(ctx) }()
	}
	return pub, func() { _ = pub.Close() }
}
