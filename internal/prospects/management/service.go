// Package management covers prospect administration: editing, assignment,
// listings, identifier search, customer history and destination upkeep.
package management

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm_viajes_backend/internal/events"
	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/apperr"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
)

// Store is the persistence surface management needs.
type Store interface {
	GetByID(ctx context.Context, id int64) (repository.Prospecto, error)
	Update(ctx context.Context, id int64, params repository.UpdateProspectoParams) (repository.Prospecto, error)
	UpdateViaje(ctx context.Context, id int64, params repository.UpdateViajeParams, logEntry repository.SystemInteraction) (repository.Prospecto, error)
	Delete(ctx context.Context, id int64) error
	SetAgente(ctx context.Context, id int64, agenteID *int64) (repository.Prospecto, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Prospecto, int, error)
	ListClosed(ctx context.Context, params repository.ClosedListParams) ([]repository.Prospecto, error)
	FindByHistorialTelefono(ctx context.Context, telefono string) ([]repository.Prospecto, error)
	FindByIDCliente(ctx context.Context, idCliente string) (repository.Prospecto, error)
	FindProspectoByIDDocumento(ctx context.Context, idDocumento string) (repository.Prospecto, error)
	FindProspectoByIDCotizacion(ctx context.Context, idCotizacion string) (repository.Prospecto, error)
	ListDestinos(ctx context.Context, query string) ([]string, error)
	RenameDestino(ctx context.Context, oldDestino, newDestino string) (int64, error)
	InsertGlobalInteraccion(ctx context.Context, usuarioID int64, descripcion string) error
}

// Actor identifies who performs a management operation.
type Actor struct {
	UsuarioID int64
	Rol       domain.Rol
}

type Service struct {
	store  Store
	bus    platformevents.Bus
	logger *logger.Logger
}

func NewService(store Store, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, logger: log}
}

func (s *Service) load(ctx context.Context, id int64) (repository.Prospecto, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Prospecto{}, apperr.NotFound("prospecto no encontrado")
		}
		return repository.Prospecto{}, apperr.Wrap(apperr.KindInternal, "cargar prospecto", err)
	}
	return p, nil
}

func (s *Service) checkOwnership(p repository.Prospecto, actor Actor) error {
	if !actor.Rol.IsPrivileged() && p.AgenteAsignadoID != nil && *p.AgenteAsignadoID != actor.UsuarioID {
		return apperr.Forbidden("el prospecto está asignado a otro agente")
	}
	return nil
}

// UpdateInput carries the editable prospect fields.
type UpdateInput struct {
	Nombre                       string
	Apellido                     string
	CorreoElectronico            string
	Telefono                     string
	IndicativoTelefono           string
	TelefonoSecundario           string
	IndicativoTelefonoSecundario string
	CiudadOrigen                 string
	Destino                      string
	FechaIda                     *time.Time
	FechaVuelta                  *time.Time
	PasajerosAdultos             int
	PasajerosNinos               int
	PasajerosInfantes            int
	MedioIngresoID               *int64
	Observaciones                string
}

// Update edits a prospect and refreshes its data-completeness flag.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, input UpdateInput) (repository.Prospecto, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return repository.Prospecto{}, err
	}
	if err := s.checkOwnership(p, actor); err != nil {
		return repository.Prospecto{}, err
	}

	telefono := strings.TrimSpace(input.Telefono)
	if telefono == "" {
		return repository.Prospecto{}, apperr.Validation("el teléfono es obligatorio")
	}
	indicativo := strings.TrimSpace(input.IndicativoTelefono)
	if indicativo == "" {
		indicativo = "57"
	}
	if !domain.ValidIndicativo(indicativo) {
		return repository.Prospecto{}, apperr.Validation("el indicativo debe tener hasta 4 dígitos")
	}
	if sec := strings.TrimSpace(input.IndicativoTelefonoSecundario); sec != "" && !domain.ValidIndicativo(sec) {
		return repository.Prospecto{}, apperr.Validation("el indicativo secundario debe tener hasta 4 dígitos")
	}

	adultos := input.PasajerosAdultos
	if adultos <= 0 {
		adultos = 1
	}

	completos := domain.TieneDatosCompletos(domain.DatosProspecto{
		CorreoElectronico: input.CorreoElectronico,
		FechaIda:          input.FechaIda,
		PasajerosAdultos:  adultos,
		PasajerosNinos:    input.PasajerosNinos,
		PasajerosInfantes: input.PasajerosInfantes,
		Destino:           input.Destino,
		CiudadOrigen:      input.CiudadOrigen,
	})

	updated, err := s.store.Update(ctx, id, repository.UpdateProspectoParams{
		Nombre:                       optional(input.Nombre),
		Apellido:                     optional(input.Apellido),
		CorreoElectronico:            optional(input.CorreoElectronico),
		Telefono:                     telefono,
		IndicativoTelefono:           indicativo,
		TelefonoSecundario:           optional(input.TelefonoSecundario),
		IndicativoTelefonoSecundario: optional(input.IndicativoTelefonoSecundario),
		CiudadOrigen:                 optional(input.CiudadOrigen),
		Destino:                      optional(input.Destino),
		FechaIda:                     input.FechaIda,
		FechaVuelta:                  input.FechaVuelta,
		PasajerosAdultos:             adultos,
		PasajerosNinos:               input.PasajerosNinos,
		PasajerosInfantes:            input.PasajerosInfantes,
		MedioIngresoID:               input.MedioIngresoID,
		Observaciones:                optional(input.Observaciones),
		TieneDatosCompletos:          completos,
	})
	if err != nil {
		return repository.Prospecto{}, apperr.Wrap(apperr.KindInternal, "actualizar prospecto", err)
	}
	return updated, nil
}

// ViajeInput carries the trip fields edited from the follow-up view.
type ViajeInput struct {
	CorreoElectronico  string
	CiudadOrigen       string
	Destino            string
	FechaIda           *time.Time
	FechaVuelta        *time.Time
	PasajerosAdultos   int
	PasajerosNinos     int
	PasajerosInfantes  int
	TelefonoSecundario string
}

// UpdateViaje updates trip information, recomputing the completeness flag and
// logging a system interaction in the same transaction.
func (s *Service) UpdateViaje(ctx context.Context, actor Actor, id int64, input ViajeInput) (repository.Prospecto, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return repository.Prospecto{}, err
	}
	if err := s.checkOwnership(p, actor); err != nil {
		return repository.Prospecto{}, err
	}

	adultos := input.PasajerosAdultos
	if adultos <= 0 {
		adultos = 1
	}

	completos := domain.TieneDatosCompletos(domain.DatosProspecto{
		CorreoElectronico: input.CorreoElectronico,
		FechaIda:          input.FechaIda,
		PasajerosAdultos:  adultos,
		PasajerosNinos:    input.PasajerosNinos,
		PasajerosInfantes: input.PasajerosInfantes,
		Destino:           input.Destino,
		CiudadOrigen:      input.CiudadOrigen,
	})

	updated, err := s.store.UpdateViaje(ctx, id, repository.UpdateViajeParams{
		CorreoElectronico:   optional(input.CorreoElectronico),
		CiudadOrigen:        optional(input.CiudadOrigen),
		Destino:             optional(input.Destino),
		FechaIda:            input.FechaIda,
		FechaVuelta:         input.FechaVuelta,
		PasajerosAdultos:    adultos,
		PasajerosNinos:      input.PasajerosNinos,
		PasajerosInfantes:   input.PasajerosInfantes,
		TelefonoSecundario:  optional(input.TelefonoSecundario),
		TieneDatosCompletos: completos,
	}, repository.SystemInteraction{
		UsuarioID:       actor.UsuarioID,
		TipoInteraccion: "sistema",
		Descripcion:     "Información de viaje actualizada",
	})
	if err != nil {
		return repository.Prospecto{}, apperr.Wrap(apperr.KindInternal, "actualizar viaje", err)
	}
	return updated, nil
}

// Delete removes a prospect. Dependent rows cascade; notifications keep their
// row with the prospect reference cleared.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(p, actor); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "eliminar prospecto", err)
	}
	s.logger.Info("prospecto eliminado", "prospecto_id", id, "usuario_id", actor.UsuarioID)
	return nil
}

// Assign hands the prospect to an agent (or clears the assignment when
// agenteID is nil) and announces it on the bus.
func (s *Service) Assign(ctx context.Context, actor Actor, id int64, agenteID *int64) (repository.Prospecto, error) {
	if _, err := s.load(ctx, id); err != nil {
		return repository.Prospecto{}, err
	}

	updated, err := s.store.SetAgente(ctx, id, agenteID)
	if err != nil {
		return repository.Prospecto{}, apperr.Wrap(apperr.KindInternal, "asignar prospecto", err)
	}

	if agenteID != nil {
		idCliente := ""
		if updated.IDCliente != nil {
			idCliente = *updated.IDCliente
		}
		s.bus.Publish(ctx, events.NewProspectAssigned(id, idCliente, *agenteID, actor.UsuarioID))
		s.logger.Info("prospecto asignado", "prospecto_id", id, "agente_id", *agenteID)
	}
	return updated, nil
}

// List returns prospects for the actor: agents see only their own records,
// privileged roles see everything the filters allow.
func (s *Service) List(ctx context.Context, actor Actor, params repository.ListParams) ([]repository.Prospecto, int, error) {
	if !actor.Rol.IsPrivileged() {
		params.AgenteID = &actor.UsuarioID
	}
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "listar prospectos", err)
	}
	return items, total, nil
}

// ListClosed returns closed prospects under the same visibility rule.
func (s *Service) ListClosed(ctx context.Context, actor Actor, params repository.ClosedListParams) ([]repository.Prospecto, error) {
	if !actor.Rol.IsPrivileged() {
		params.AgenteID = &actor.UsuarioID
	}
	items, err := s.store.ListClosed(ctx, params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "listar cerrados", err)
	}
	return items, nil
}

// SearchByIdentifier resolves a human-facing identifier to its prospect,
// dispatching on the prefix: CL- for clients, DOC- for documents, COT- for
// quotations.
func (s *Service) SearchByIdentifier(ctx context.Context, actor Actor, identifier string) (repository.Prospecto, error) {
	identifier = strings.TrimSpace(identifier)

	var p repository.Prospecto
	var err error
	switch {
	case strings.HasPrefix(identifier, domain.PrefijoCotizacion+"-"):
		p, err = s.store.FindProspectoByIDCotizacion(ctx, identifier)
	case strings.HasPrefix(identifier, domain.PrefijoDocumento+"-"):
		p, err = s.store.FindProspectoByIDDocumento(ctx, identifier)
	case strings.HasPrefix(identifier, domain.PrefijoCliente+"-"):
		p, err = s.store.FindByIDCliente(ctx, identifier)
	default:
		return repository.Prospecto{}, apperr.Validation("identificador desconocido: use CL-, DOC- o COT-")
	}
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Prospecto{}, apperr.NotFound("no existe un registro con ese identificador")
		}
		return repository.Prospecto{}, apperr.Wrap(apperr.KindInternal, "buscar identificador", err)
	}
	if err := s.checkOwnership(p, actor); err != nil {
		return repository.Prospecto{}, err
	}
	return p, nil
}

// CustomerHistory returns every registration under a phone number, newest
// first, so recurring customers can be reviewed as one thread.
func (s *Service) CustomerHistory(ctx context.Context, telefono string) ([]repository.Prospecto, error) {
	telefono = strings.TrimSpace(telefono)
	if telefono == "" {
		return nil, apperr.Validation("el teléfono es obligatorio")
	}
	items, err := s.store.FindByHistorialTelefono(ctx, telefono)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "historial de cliente", err)
	}
	return items, nil
}

// Destinos returns destination suggestions for autocomplete.
func (s *Service) Destinos(ctx context.Context, query string) ([]string, error) {
	destinos, err := s.store.ListDestinos(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "listar destinos", err)
	}
	return destinos, nil
}

// RenameDestino rewrites a destination spelling across every prospect and
// leaves a global audit entry. Admin-only at the transport layer.
func (s *Service) RenameDestino(ctx context.Context, actor Actor, oldDestino, newDestino string) (int64, error) {
	oldDestino = strings.TrimSpace(oldDestino)
	newDestino = strings.TrimSpace(newDestino)
	if oldDestino == "" || newDestino == "" {
		return 0, apperr.Validation("destino actual y nuevo son obligatorios")
	}
	if oldDestino == newDestino {
		return 0, apperr.Validation("el destino nuevo es igual al actual")
	}

	affected, err := s.store.RenameDestino(ctx, oldDestino, newDestino)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "renombrar destino", err)
	}

	desc := fmt.Sprintf("Destino normalizado de %q a %q (%d prospectos)", oldDestino, newDestino, affected)
	if err := s.store.InsertGlobalInteraccion(ctx, actor.UsuarioID, desc); err != nil {
		s.logger.Error("registrar interacción global", "error", err)
	}
	return affected, nil
}

func optional(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
