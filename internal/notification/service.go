package notification

import (
	"context"
	"fmt"
	"time"

	"crm_viajes_backend/internal/email"
	"crm_viajes_backend/internal/events"
	"crm_viajes_backend/platform/apperr"
	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/logger"
)

// Scheduler enqueues deferred work; the asynq-backed implementation lives in
// the scheduler module.
type Scheduler interface {
	EnqueueFollowUpReminder(ctx context.Context, notificacionID int64, at time.Time) error
}

type Service struct {
	repo      *Repository
	sender    email.Sender
	scheduler Scheduler
	cfg       config.NotificationConfig
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(repo *Repository, sender email.Sender, scheduler Scheduler, cfg config.NotificationConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, sender: sender, scheduler: scheduler, cfg: cfg, logger: log, now: time.Now}
}

// HandleProspectAssigned reacts to an assignment: immediate notification plus
// email, and a follow-up reminder scheduled for the next morning.
func (s *Service) HandleProspectAssigned(ctx context.Context, evt events.ProspectAssigned) error {
	prospectoID := evt.ProspectoID
	mensaje := fmt.Sprintf("Se te asignó el prospecto %s", evt.IDCliente)

	notifID, err := s.repo.Insert(ctx, evt.AgenteID, &prospectoID, TipoAsignacion, mensaje, nil)
	if err != nil {
		return fmt.Errorf("crear notificación de asignación: %w", err)
	}

	if destinatario, username, err := s.repo.UserEmail(ctx, evt.AgenteID); err == nil {
		subject, body := email.AssignmentBody(username, evt.IDCliente, mensaje)
		if err := s.sender.Send(ctx, destinatario, subject, body); err != nil {
			s.logger.Error("enviar correo de asignación", "error", err, "agente_id", evt.AgenteID)
		} else if err := s.repo.MarkEmailSent(ctx, notifID); err != nil {
			s.logger.Error("marcar correo enviado", "error", err)
		}
	}

	// Follow-up reminder for 09:00 the next day, local time.
	manana := s.now().AddDate(0, 0, 1)
	programada := time.Date(manana.Year(), manana.Month(), manana.Day(), 9, 0, 0, 0, manana.Location())
	recordatorio := fmt.Sprintf("Seguimiento programado para el prospecto %s", evt.IDCliente)
	reminderID, err := s.repo.Insert(ctx, evt.AgenteID, &prospectoID, TipoSeguimiento, recordatorio, &programada)
	if err != nil {
		return fmt.Errorf("crear recordatorio de seguimiento: %w", err)
	}
	if s.scheduler != nil {
		if err := s.scheduler.EnqueueFollowUpReminder(ctx, reminderID, programada); err != nil {
			// The due-reminder sweep in the worker still picks it up.
			s.logger.Error("programar recordatorio", "error", err, "notificacion_id", reminderID)
		}
	}
	return nil
}

// List returns the user's notifications, running the inactivity sweep first
// so stale prospects surface without a separate cron.
func (s *Service) List(ctx context.Context, usuarioID int64, soloNoLeidas bool) ([]Notificacion, error) {
	s.sweepInactivity(ctx)

	items, err := s.repo.ListByUsuario(ctx, usuarioID, soloNoLeidas)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "listar notificaciones", err)
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, usuarioID, id int64) error {
	ok, err := s.repo.MarkRead(ctx, usuarioID, id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "marcar notificación", err)
	}
	if !ok {
		return apperr.NotFound("notificación no encontrada")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, usuarioID int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, usuarioID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "marcar notificaciones", err)
	}
	return n, nil
}

// sweepInactivity creates alerts for followed prospects that went quiet. Best
// effort: a failure only logs.
func (s *Service) sweepInactivity(ctx context.Context) {
	threshold := time.Duration(s.cfg.GetInactivityThresholdDays()) * 24 * time.Hour
	inactivos, err := s.repo.FindInactive(ctx, threshold, s.now())
	if err != nil {
		s.logger.Error("barrido de inactividad", "error", err)
		return
	}
	for _, p := range inactivos {
		idCliente := ""
		if p.IDCliente != nil {
			idCliente = *p.IDCliente
		}
		mensaje := fmt.Sprintf("El prospecto %s lleva %d días sin interacciones", idCliente, p.DiasSinTocar)
		prospectoID := p.ProspectoID
		if _, err := s.repo.Insert(ctx, p.AgenteID, &prospectoID, TipoInactividad, mensaje, nil); err != nil {
			s.logger.Error("crear alerta de inactividad", "error", err, "prospecto_id", p.ProspectoID)
		}
	}
}

// SendDueReminders emails every scheduled reminder that is due and stamps it.
// The worker invokes this both from the periodic sweep and from individually
// scheduled tasks.
func (s *Service) SendDueReminders(ctx context.Context) (int, error) {
	due, err := s.repo.DueReminders(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("cargar recordatorios: %w", err)
	}

	sent := 0
	for _, reminder := range due {
		subject, body := email.FollowUpBody(reminder.Username, reminder.Mensaje)
		if err := s.sender.Send(ctx, reminder.Email, subject, body); err != nil {
			s.logger.Error("enviar recordatorio", "error", err, "notificacion_id", reminder.ID)
			continue
		}
		if err := s.repo.MarkEmailSent(ctx, reminder.ID); err != nil {
			s.logger.Error("marcar recordatorio enviado", "error", err, "notificacion_id", reminder.ID)
			continue
		}
		sent++
	}
	return sent, nil
}
