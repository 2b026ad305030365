package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_viajes_backend/internal/adapters/storage"
	"crm_viajes_backend/internal/auth"
	"crm_viajes_backend/internal/channels"
	"crm_viajes_backend/internal/email"
	"crm_viajes_backend/internal/exports"
	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/internal/http/router"
	"crm_viajes_backend/internal/notification"
	"crm_viajes_backend/internal/prospects"
	"crm_viajes_backend/internal/prospects/lifecycle"
	"crm_viajes_backend/internal/reports"
	"crm_viajes_backend/internal/scheduler"
	"crm_viajes_backend/internal/users"
	"crm_viajes_backend/migrations"
	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/db"
	"crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
	"crm_viajes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("iniciando servidor", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "migraciones", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("ejecutar migraciones", "error", err)
		panic("ejecutar migraciones: " + err.Error())
	}
	log.Info("migraciones aplicadas")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "conexión a base de datos", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("conectar a base de datos", "error", err)
		panic("conectar a base de datos: " + err.Error())
	}
	defer pool.Close()
	log.Info("conexión a base de datos establecida")

	eventBus := events.NewInMemoryBus(log)

	objects := initObjectStore(ctx, cfg, log)
	sender := initEmailSender(cfg, log)

	reminderClient, err := scheduler.NewClient(cfg, log)
	if err != nil {
		log.Error("inicializar scheduler", "error", err)
		panic("inicializar scheduler: " + err.Error())
	}
	var reminderScheduler notification.Scheduler
	if reminderClient != nil {
		reminderScheduler = reminderClient
		defer reminderClient.Close()
	}

	val := validator.New()

	authModule := auth.NewModule(pool, cfg, log)
	usersModule := users.NewModule(pool, val, log)
	channelsModule := channels.NewModule(pool)
	prospectsModule := prospects.NewModule(pool, objects, eventBus, log)
	reportsModule := reports.NewModule(pool, log)
	notificationModule := notification.NewModule(pool, sender, reminderScheduler, cfg, eventBus, log)
	exportsModule := exports.NewModule(prospectsModule.Repo(), log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			usersModule,
			channelsModule,
			prospectsModule,
			reportsModule,
			notificationModule,
			exportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("servidor escuchando", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("señal de apagado recibida")
	case err := <-srvErr:
		if err != nil {
			log.Error("error del servidor", "error", err)
			panic("error del servidor: " + err.Error())
		}
	}
}

// initObjectStore connects to MinIO, falling back to a disabled store so the
// API still serves everything except document payloads.
func initObjectStore(ctx context.Context, cfg *config.Config, log *logger.Logger) lifecycle.ObjectStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT no configurado; documentos deshabilitados")
		return storage.Disabled{}
	}
	svc, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Error("inicializar almacenamiento", "error", err)
		panic("inicializar almacenamiento: " + err.Error())
	}
	log.Info("almacenamiento de documentos inicializado", "bucket", cfg.GetMinioBucketDocuments())
	return svc
}

func initEmailSender(cfg *config.Config, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() {
		log.Warn("EMAIL_ENABLED=false; correos deshabilitados")
		return email.NewNoopSender(log)
	}
	return email.NewSMTPSender(cfg, log)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: intentos inválidos", name)
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
			log.Warn("operación reintentable falló", "operation", name, "attempt", attempt, "error", err)
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
