package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"furbabies_backend/internal/auth"
	"furbabies_backend/internal/contact"
	"furbabies_backend/internal/email"
	"furbabies_backend/platform/events"
	apphttp "furbabies_backend/internal/http"
	"furbabies_backend/internal/http/router"
	"furbabies_backend/internal/media"
	"furbabies_backend/internal/notification"
	"furbabies_backend/internal/pets"
	petservice "furbabies_backend/internal/pets/service"
	"furbabies_backend/internal/scheduler"
	"furbabies_backend/internal/storage"
	"furbabies_backend/platform/config"
	"furbabies_backend/platform/db"
	"furbabies_backend/platform/logger"
	"furbabies_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sweeper, closeSweeper := initSweepScheduler(cfg, log)
	if closeSweeper != nil {
		defer closeSweeper()
	}

	sender := email.NewSender(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Object store for pet images (MinIO)
	store, err := storage.NewClient(cfg, cfg.GetPetImagesBucket())
	if err != nil {
		log.Error("failed to initialize object store", "error", err)
		panic("failed to initialize object store: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure pet images bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetPetImagesBucket())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("object store initialized", "bucket", cfg.GetPetImagesBucket())

	mediaManager := media.NewManager(store, media.NewDeriver(cfg.IsThumbnailingEnabled()), log, cfg.GetMaxImageSize())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(sender, log)
	notificationModule.RegisterHandlers(eventBus)

	authModule, err := auth.NewModule(pool, cfg, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize auth module", "error", err)
		panic("failed to initialize auth module: " + err.Error())
	}
	petsModule := pets.NewModule(pool, mediaManager, eventBus, sweeper, val, log, cfg.GetAppBaseURL(), cfg.GetMaxBatchFiles())
	contactModule := contact.NewModule(pool, sender, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			petsModule,
			contactModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initSweepScheduler(cfg config.SchedulerConfig, log *logger.Logger) (petservice.SweepScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; orphan sweeps disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize sweep scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
