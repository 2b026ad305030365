// Package lifecycle drives the prospect funnel: interactions, state
// transitions, document uploads and reactivation of closed prospects.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"strings"

	"crm_viajes_backend/internal/events"
	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/apperr"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
	"crm_viajes_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the persistence surface the lifecycle needs.
type Store interface {
	GetByID(ctx context.Context, id int64) (repository.Prospecto, error)
	RecordInteraction(ctx context.Context, params repository.RecordInteractionParams) error
	UploadDocument(ctx context.Context, params repository.UploadDocumentParams) (int64, string, error)
	Reactivar(ctx context.Context, prospectoID, usuarioID int64, estadoActual domain.Estado, motivo string) error
	ListInteracciones(ctx context.Context, prospectoID int64) ([]repository.Interaccion, error)
	ListHistorial(ctx context.Context, prospectoID int64) ([]repository.HistorialEntry, error)
	ListDocumentos(ctx context.Context, prospectoID int64) ([]repository.Documento, error)
	GetDocumento(ctx context.Context, id int64) (repository.Documento, error)
}

// ObjectStore persists document payloads outside the database.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key, downloadName string) (string, error)
}

// Actor identifies who performs a lifecycle operation.
type Actor struct {
	UsuarioID int64
	Rol       domain.Rol
}

type Service struct {
	store   Store
	objects ObjectStore
	bus     platformevents.Bus
	logger  *logger.Logger
}

func NewService(store Store, objects ObjectStore, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{store: store, objects: objects, bus: bus, logger: log}
}

// checkAccess loads the prospect and rejects agents acting on records
// assigned to somebody else. Unassigned prospects stay reachable so agents
// can pick them up.
func (s *Service) checkAccess(ctx context.Context, prospectoID int64, actor Actor) (repository.Prospecto, error) {
	p, err := s.store.GetByID(ctx, prospectoID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Prospecto{}, apperr.NotFound("prospecto no encontrado")
		}
		return repository.Prospecto{}, apperr.Wrap(apperr.KindInternal, "cargar prospecto", err)
	}
	if !actor.Rol.IsPrivileged() && p.AgenteAsignadoID != nil && *p.AgenteAsignadoID != actor.UsuarioID {
		return repository.Prospecto{}, apperr.Forbidden("el prospecto está asignado a otro agente")
	}
	return p, nil
}

// InteractionInput describes an interaction, optionally with a transition.
type InteractionInput struct {
	TipoInteraccion string
	Descripcion     string
	NuevoEstado     string
}

// RecordInteraction logs an interaction on the prospect and applies the
// transition it carries. The forward-progress guard runs before anything is
// written; closing a prospect as lost demands an explicit reason.
func (s *Service) RecordInteraction(ctx context.Context, actor Actor, prospectoID int64, input InteractionInput) error {
	p, err := s.checkAccess(ctx, prospectoID, actor)
	if err != nil {
		return err
	}

	descripcion := strings.TrimSpace(input.Descripcion)

	var nuevoEstado *domain.Estado
	if raw := strings.TrimSpace(input.NuevoEstado); raw != "" {
		estado, err := domain.ParseEstado(raw)
		if err != nil {
			return err
		}
		if estado == domain.EstadoCerradoPerdido && descripcion == "" {
			return apperr.Validation("debe especificar el motivo de cierre")
		}
		if err := domain.CheckTransition(p.Estado, estado, actor.Rol); err != nil {
			return err
		}
		nuevoEstado = &estado
	}

	if descripcion == "" {
		return apperr.Validation("la descripción de la interacción es obligatoria")
	}

	tipo := strings.TrimSpace(input.TipoInteraccion)
	if tipo == "" {
		tipo = "seguimiento"
	}

	err = s.store.RecordInteraction(ctx, repository.RecordInteractionParams{
		ProspectoID:     prospectoID,
		UsuarioID:       actor.UsuarioID,
		TipoInteraccion: tipo,
		Descripcion:     descripcion,
		EstadoAnterior:  p.Estado,
		EstadoNuevo:     nuevoEstado,
		AgenteID:        p.AgenteAsignadoID,
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "registrar interacción", err)
	}

	if nuevoEstado != nil && *nuevoEstado != p.Estado {
		s.bus.Publish(ctx, events.NewProspectStateChanged(prospectoID, string(p.Estado), string(*nuevoEstado), actor.UsuarioID))
		s.logger.Info("cambio de estado", "prospecto_id", prospectoID,
			"estado_anterior", string(p.Estado), "estado_nuevo", string(*nuevoEstado))
	}
	return nil
}

// DocumentInput is an uploaded file plus its metadata.
type DocumentInput struct {
	NombreArchivo string
	TipoDocumento string
	Descripcion   string
	ContentType   string
	Size          int64
	Contenido     io.Reader
}

// UploadDocument stores a PDF in the document bucket and registers it. A
// quotation document forces the prospect into cotizado.
func (s *Service) UploadDocument(ctx context.Context, actor Actor, prospectoID int64, input DocumentInput) (repository.Documento, error) {
	p, err := s.checkAccess(ctx, prospectoID, actor)
	if err != nil {
		return repository.Documento{}, err
	}

	nombre := strings.TrimSpace(input.NombreArchivo)
	if !strings.HasSuffix(strings.ToLower(nombre), ".pdf") {
		return repository.Documento{}, apperr.Validation("solo se aceptan archivos PDF")
	}

	tipo := strings.TrimSpace(input.TipoDocumento)
	if tipo == "" {
		tipo = "cotizacion"
	}

	key := fmt.Sprintf("prospectos/%d/%s-%s", prospectoID, uuid.NewString(), nombre)
	if err := s.objects.Upload(ctx, key, input.Contenido, input.Size, input.ContentType); err != nil {
		return repository.Documento{}, apperr.Wrap(apperr.KindInternal, "almacenar documento", err)
	}

	// The quotation stat is credited to the assigned agent, or to the
	// uploader when nobody holds the prospect yet.
	agenteID := p.AgenteAsignadoID
	if agenteID == nil {
		agenteID = &actor.UsuarioID
	}

	docID, idDocumento, err := s.store.UploadDocument(ctx, repository.UploadDocumentParams{
		ProspectoID:   prospectoID,
		UsuarioID:     actor.UsuarioID,
		NombreArchivo: nombre,
		TipoDocumento: tipo,
		RutaArchivo:   key,
		Descripcion:   optional(input.Descripcion),
		EstadoActual:  p.Estado,
		AgenteID:      agenteID,
	})
	if err != nil {
		return repository.Documento{}, apperr.Wrap(apperr.KindInternal, "registrar documento", err)
	}

	s.bus.Publish(ctx, events.NewDocumentUploaded(prospectoID, docID, idDocumento, tipo, actor.UsuarioID))
	if tipo == "cotizacion" && p.Estado != domain.EstadoCotizado {
		s.bus.Publish(ctx, events.NewProspectStateChanged(prospectoID, string(p.Estado), string(domain.EstadoCotizado), actor.UsuarioID))
	}

	doc, err := s.store.GetDocumento(ctx, docID)
	if err != nil {
		return repository.Documento{}, apperr.Wrap(apperr.KindInternal, "cargar documento", err)
	}
	return doc, nil
}

// DocumentURL returns a short-lived download link for a stored document.
func (s *Service) DocumentURL(ctx context.Context, actor Actor, documentoID int64) (string, error) {
	doc, err := s.store.GetDocumento(ctx, documentoID)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", apperr.NotFound("documento no encontrado")
		}
		return "", apperr.Wrap(apperr.KindInternal, "cargar documento", err)
	}
	if _, err := s.checkAccess(ctx, doc.ProspectoID, actor); err != nil {
		return "", err
	}
	url, err := s.objects.PresignedURL(ctx, doc.RutaArchivo, doc.NombreArchivo)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "firmar url de documento", err)
	}
	return url, nil
}

// Reactivar reopens a closed prospect into en_seguimiento. Only terminal
// prospects can be reactivated; the move is logged as an interaction but not
// added to the state audit trail.
func (s *Service) Reactivar(ctx context.Context, actor Actor, prospectoID int64, motivo string) error {
	p, err := s.checkAccess(ctx, prospectoID, actor)
	if err != nil {
		return err
	}
	if !p.Estado.IsTerminal() {
		return apperr.Validation("solo se pueden reactivar prospectos cerrados")
	}

	motivo = strings.TrimSpace(motivo)
	if motivo == "" {
		motivo = "Prospecto reactivado"
	} else {
		motivo = "Prospecto reactivado: " + motivo
	}

	if err := s.store.Reactivar(ctx, prospectoID, actor.UsuarioID, p.Estado, motivo); err != nil {
		return apperr.Wrap(apperr.KindInternal, "reactivar prospecto", err)
	}

	s.bus.Publish(ctx, events.NewProspectStateChanged(prospectoID, string(p.Estado), string(domain.EstadoEnSeguimiento), actor.UsuarioID))
	return nil
}

// Detail is the full prospect view: record, interactions, audit trail and
// documents.
type Detail struct {
	Prospecto     repository.Prospecto
	WhatsAppLink  string
	Interacciones []repository.Interaccion
	Historial     []repository.HistorialEntry
	Documentos    []repository.Documento
}

// GetDetail loads the prospect with its interactions, state history and
// documents.
func (s *Service) GetDetail(ctx context.Context, actor Actor, prospectoID int64) (Detail, error) {
	p, err := s.checkAccess(ctx, prospectoID, actor)
	if err != nil {
		return Detail{}, err
	}

	interacciones, err := s.store.ListInteracciones(ctx, prospectoID)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "cargar interacciones", err)
	}
	historial, err := s.store.ListHistorial(ctx, prospectoID)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "cargar historial", err)
	}
	documentos, err := s.store.ListDocumentos(ctx, prospectoID)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "cargar documentos", err)
	}

	return Detail{
		Prospecto:     p,
		WhatsAppLink:  whatsAppLink(p),
		Interacciones: interacciones,
		Historial:     historial,
		Documentos:    documentos,
	}, nil
}

func whatsAppLink(p repository.Prospecto) string {
	return phone.WhatsAppLink(p.IndicativoTelefono, p.Telefono)
}

func optional(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
