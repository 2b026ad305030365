package scheduler

import (
	"context"
	"fmt"

	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ReminderSender is the slice of the notification service the worker needs.
type ReminderSender interface {
	SendDueReminders(ctx context.Context) (int, error)
}

// Worker consumes scheduled tasks and the periodic sweep.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *logger.Logger
}

// NewWorker builds the asynq server plus the periodic sweep schedule.
func NewWorker(cfg config.SchedulerConfig, sender ReminderSender, log *logger.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}

	queue := cfg.GetAsynqQueueName()
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{queue: 1},
	})

	mux := asynq.NewServeMux()
	handler := func(ctx context.Context, task *asynq.Task) error {
		// Both task types resolve to the same sweep: delivery is idempotent
		// because sent reminders are stamped email_enviado.
		sent, err := sender.SendDueReminders(ctx)
		if err != nil {
			return err
		}
		if sent > 0 {
			log.Info("recordatorios enviados", "count", sent, "task", task.Type())
		}
		return nil
	}
	mux.HandleFunc(TaskFollowUpReminder, handler)
	mux.HandleFunc(TaskReminderSweep, handler)

	sched := asynq.NewScheduler(opt, nil)
	if _, err := sched.Register("*/10 * * * *", asynq.NewTask(TaskReminderSweep, nil), asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("registrar barrido periódico: %w", err)
	}

	return &Worker{server: server, scheduler: sched, mux: mux, logger: log}, nil
}

// Run starts the scheduler and blocks processing tasks until Shutdown.
func (w *Worker) Run() error {
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("iniciar scheduler: %w", err)
	}
	return w.server.Run(w.mux)
}

// Shutdown stops task processing and the periodic schedule.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
