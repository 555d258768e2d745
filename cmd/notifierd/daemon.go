package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ybtag/GrapheneMessaging/internal/config"
	"github.com/ybtag/GrapheneMessaging/internal/cron"
	"github.com/ybtag/GrapheneMessaging/internal/gateway"
	"github.com/ybtag/GrapheneMessaging/internal/notify"
	"github.com/ybtag/GrapheneMessaging/internal/shelf"
	"github.com/ybtag/GrapheneMessaging/internal/store"
)

const shutdownTimeout = 10 * time.Second

// runDaemon wires the store, engine, gateway and scheduler, then blocks until
// ctx is canceled.
func runDaemon(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Log)

	if cfg.Tracing.Enabled {
		shutdown, err := initTracing(context.Background(), cfg.Tracing.Endpoint)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("tracing shutdown failed", "error", err)
			}
		}()
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = filepath.Join(cfg.App.DataDir, "messages.db")
	}
	db, err := store.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mem := shelf.NewMemory(logger)
	presence := gateway.NewPresence()

	dispatcher := notify.NewDispatcher(notify.Deps{
		Store:    db,
		Shelf:    mem,
		Presence: presence,
		Avatars:  gateway.NewAvatarResolver(filepath.Join(cfg.App.DataDir, "avatars")),
		Actions:  gateway.Actions{},
		Sounds:   mem,
		Role:     notify.StaticRole(cfg.Notifications.Enabled),
		Logger:   logger,
		Metrics:  notify.NewMetrics(registry),
	}, notify.Options{
		AppID:              cfg.App.ID,
		LineCap:            cfg.Notifications.LineCap,
		DefaultRingtoneURI: cfg.Notifications.DefaultRingtone,
		FailureSoundURI:    cfg.Notifications.FailureSound,
	})

	gw := gateway.New(cfg.Gateway, gateway.Deps{
		Store:      db,
		Dispatcher: dispatcher,
		Shelf:      mem,
		Presence:   presence,
		Registry:   registry,
		Logger:     logger,
	})
	if err := gw.Start(); err != nil {
		return err
	}

	scheduler := cron.NewScheduler(logger)
	if expr := cfg.Jobs.FailedSweep; expr != "" {
		if err := scheduler.RegisterJob(&cron.FailedSweepJob{
			Notifier:     dispatcher,
			Logger:       logger,
			ScheduleExpr: expr,
		}); err != nil {
			return err
		}
	}
	if expr := cfg.Jobs.Resync; expr != "" {
		if err := scheduler.RegisterJob(&cron.ResyncJob{
			Notifier:     dispatcher,
			Logger:       logger,
			ScheduleExpr: expr,
		}); err != nil {
			return err
		}
	}
	if err := scheduler.Start(); err != nil {
		return err
	}

	// Notifications that accumulated while the daemon was down get announced
	// right away rather than on the first job tick.
	if err := dispatcher.Resync(ctx); err != nil {
		logger.Error("startup resync failed", "error", err)
	}

	logger.Info("notifierd started",
		"app_id", cfg.App.ID,
		"gateway", cfg.Gateway.Bind,
		"notifications_enabled", cfg.Notifications.Enabled,
	)

	<-ctx.Done()

	logger.Info("shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Error("scheduler stop failed", "error", err)
	}
	return gw.Stop(stopCtx)
}

// initTracing installs an OTLP/HTTP trace exporter as the global provider and
// returns its shutdown function.
func initTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
