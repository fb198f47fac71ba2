package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/config"
	"github.com/iliyamo/events-booking/internal/database"
	"github.com/iliyamo/events-booking/internal/handler"
	"github.com/iliyamo/events-booking/internal/logging"
	"github.com/iliyamo/events-booking/internal/notify"
	"github.com/iliyamo/events-booking/internal/queue"
	"github.com/iliyamo/events-booking/internal/repository"
	"github.com/iliyamo/events-booking/internal/repository/memstore"
	"github.com/iliyamo/events-booking/internal/router"
	"github.com/iliyamo/events-booking/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	opts := []service.Option{service.WithLogger(logger)}

	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		opts = append(opts, service.WithPublisher(queue.NewPublisher(qcfg.URL, logger)))
		if qcfg.ConsumerEnabled {
			var mailer queue.Mailer
			if mcfg := config.LoadMailConfig(); mcfg.Enabled {
				mailer = notify.NewResendSender(mcfg.APIKey, mcfg.From, logger)
			}
			consumer := queue.NewConsumer(qcfg.URL, qcfg.LogPath, mailer, logger)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("booking consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	authSvc := service.NewAuthService(cfg, store, opts...)
	if cfg.AdminEmail != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			logger.Fatal("bootstrap admin", zap.Error(err))
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Info("redis unavailable; cache and rate limit disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	e := router.New(router.Deps{
		JWTSecret:     cfg.JWTSecret,
		Log:           logger,
		Redis:         rdb,
		Cache:         config.LoadCacheConfig(),
		RateLimit:     config.LoadRateLimitConfig(),
		Store:         store,
		Auth:          handler.NewAuthHandler(authSvc, cfg.JWTSecret),
		Events:        handler.NewEventHandler(service.NewEventService(store, opts...)),
		Registrations: handler.NewRegistrationHandler(service.NewBookingService(store, opts...)),
		Admin:         handler.NewAdminHandler(service.NewAdminService(store, opts...)),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

// openStore returns the adapter selected by STORE_BACKEND.  The MySQL
// schema is applied on every start.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		return memstore.New(), nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repository.NewMySQL(db), nil
}
