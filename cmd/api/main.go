package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldtech_backend/internal/apptcache"
	"fieldtech_backend/internal/discovery"
	"fieldtech_backend/internal/events"
	"fieldtech_backend/internal/geocode"
	apphttp "fieldtech_backend/internal/http"
	"fieldtech_backend/internal/http/router"
	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/lifecycle"
	"fieldtech_backend/internal/media"
	"fieldtech_backend/internal/notification"
	"fieldtech_backend/internal/scheduler"
	"fieldtech_backend/internal/webhook"
	"fieldtech_backend/platform/config"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/validator"
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

	var pointers *apptcache.Store
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		store, err := apptcache.NewFromURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		if err := store.Ping(ctx); err != nil {
			return err
		}
		pointers = store
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer pointers.Close()
	log.Info("redis connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	jobClient := jobapi.NewClient(cfg, log)
	geocoder := geocode.NewCache(geocode.NewNominatimClient(cfg, log), cfg.GeocoderMinInterval, log)

	var store media.ObjectStore
	if cfg.IsMinIOEnabled() {
		minioStore, err := media.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize media storage", "error", err)
			panic("failed to initialize media storage: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure media bucket", 5, 2*time.Second, func() error {
			return minioStore.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure media bucket exists", "error", err)
			panic("failed to ensure media bucket exists: " + err.Error())
		}
		store = minioStore
		log.Info("media storage initialized", "bucket", cfg.GetMinioBucketJobMedia())
	} else {
		log.Warn("MinIO not configured; media endpoints will reject uploads")
	}

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.NewModule(eventBus, log)

	mediaModule := media.NewModule(store, cfg.MinIOMaxFileSize, val, log)
	lifecycleModule := lifecycle.NewModule(jobClient, pointers, mediaModule.Service, eventBus, val, log)
	discoveryModule := discovery.NewModule(jobClient, geocoder, eventBus, val, log, discovery.Options{
		RadiusKm:      cfg.DiscoverRadiusKm,
		DefaultRegion: cfg.PhoneDefaultRegion,
	})
	webhookModule := webhook.NewModule(cfg, eventBus, val, log)

	if reminderScheduler != nil {
		scheduler.NewListener(reminderScheduler, eventBus, cfg.VisitReminderLead, log)

		// Consume due reminders in-process so they reach connected devices
		// over SSE. A dedicated scheduler deployment should use its own
		// queue name to avoid competing for the same tasks.
		worker, err := scheduler.NewWorker(cfg, eventBus, log)
		if err != nil {
			log.Error("failed to initialize reminder worker", "error", err)
		} else {
			go worker.Run(ctx)
		}
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pointers,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			discoveryModule,
			lifecycleModule,
			mediaModule,
			notificationModule,
			webhookModule,
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
		notificationModule.SSE.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; visit reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
