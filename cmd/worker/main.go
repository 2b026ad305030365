package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crm_viajes_backend/internal/email"
	"crm_viajes_backend/internal/notification"
	"crm_viajes_backend/internal/scheduler"
	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/db"
	"crm_viajes_backend/platform/logger"
)

// The worker delivers follow-up reminders: the asynq tasks the API enqueues
// plus a periodic sweep that catches anything the queue missed.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if cfg.RedisURL == "" {
		panic("REDIS_URL es obligatorio para el worker")
	}

	log := logger.New(cfg.Env)
	log.Info("iniciando worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("conectar a base de datos", "error", err)
		panic("conectar a base de datos: " + err.Error())
	}
	defer pool.Close()

	var sender email.Sender
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg, log)
	} else {
		log.Warn("EMAIL_ENABLED=false; correos deshabilitados")
		sender = email.NewNoopSender(log)
	}

	svc := notification.NewService(notification.NewRepository(pool), sender, nil, cfg, log)

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("inicializar worker", "error", err)
		panic("inicializar worker: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		log.Info("señal de apagado recibida")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Error("error del worker", "error", err)
		panic("error del worker: " + err.Error())
	}
}
