// Package dedup resolves incoming registrations against existing prospects
// by phone number before any row is created.
package dedup

import (
	"context"
	"strings"
	"time"

	"crm_viajes_backend/internal/events"
	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/apperr"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
	"crm_viajes_backend/platform/phone"
)

const recentInteractionLimit = 5

// Store is the persistence surface the resolver needs.
type Store interface {
	FindByPhones(ctx context.Context, telefono string, telefonoSecundario *string) ([]repository.Prospecto, error)
	CountInteracciones(ctx context.Context, prospectoIDs []int64) (int, error)
	CountDocumentos(ctx context.Context, prospectoIDs []int64) (int, error)
	ListRecentInteracciones(ctx context.Context, prospectoIDs []int64, limit int) ([]repository.Interaccion, error)
	Create(ctx context.Context, params repository.CreateProspectoParams, logEntry *repository.SystemInteraction) (repository.Prospecto, error)
}

type Service struct {
	store  Store
	bus    platformevents.Bus
	logger *logger.Logger
}

func NewService(store Store, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, logger: log}
}

// RegistrationInput is a registration attempt. ForzarNuevo skips the
// duplicate confirmation and creates a linked recurring-customer record.
type RegistrationInput struct {
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
	AgenteAsignadoID             *int64
	ForzarNuevo                  bool
	CreadoPorID                  int64
}

// Match is one existing prospect that shares a phone number with the
// registration attempt.
type Match struct {
	Prospecto    repository.Prospecto
	WhatsAppLink string
}

// IdentitySuggestion is the identity backfill offered alongside a duplicate
// confirmation, taken per field from the most recent match that has it.
type IdentitySuggestion struct {
	Nombre            string
	Apellido          string
	CorreoElectronico string
}

// Resolution is the outcome of a registration attempt. Either
// RequiresConfirmation is set, Matches describes the duplicates and Candidato
// echoes the submitted form so the caller can resubmit it unchanged, or
// Prospecto carries the created record.
type Resolution struct {
	RequiresConfirmation   bool
	Matches                []Match
	TotalInteracciones     int
	TotalDocumentos        int
	InteraccionesRecientes []repository.Interaccion
	Identidad              IdentitySuggestion
	Candidato              RegistrationInput
	Prospecto              *repository.Prospecto
}

// Resolve checks the registration attempt against existing prospects. Phone
// comparison is exact on the stored digits; both the primary and secondary
// candidate numbers are matched against both stored columns. When duplicates
// exist and the caller did not force creation, the full match set comes back
// for confirmation instead of a new row.
func (s *Service) Resolve(ctx context.Context, input RegistrationInput) (Resolution, error) {
	if err := validateIndicativos(input); err != nil {
		return Resolution{}, err
	}

	var secundario *string
	if t := strings.TrimSpace(input.TelefonoSecundario); t != "" {
		secundario = &t
	}

	matches, err := s.store.FindByPhones(ctx, strings.TrimSpace(input.Telefono), secundario)
	if err != nil {
		return Resolution{}, err
	}

	if len(matches) > 0 && !input.ForzarNuevo {
		return s.buildConfirmation(ctx, input, matches)
	}

	var logEntry *repository.SystemInteraction
	params := s.createParams(input)
	if len(matches) > 0 {
		// Forced creation of a known number: backfill identity fields the form
		// left blank from the matched rows and link the new record to the most
		// recent existing one.
		applyIdentity(&params, suggestIdentity(matches))
		params.ClienteRecurrente = true
		originalID := matches[0].ID
		params.ProspectoOriginalID = &originalID
		ref := ""
		if matches[0].IDCliente != nil {
			ref = " (" + *matches[0].IDCliente + ")"
		}
		logEntry = &repository.SystemInteraction{
			UsuarioID:       input.CreadoPorID,
			TipoInteraccion: "sistema",
			Descripcion:     "Cliente recurrente: registro nuevo vinculado al prospecto anterior" + ref,
		}
	}

	created, err := s.store.Create(ctx, params, logEntry)
	if err != nil {
		return Resolution{}, err
	}

	idCliente := ""
	if created.IDCliente != nil {
		idCliente = *created.IDCliente
	}
	s.bus.Publish(ctx, events.NewProspectCreated(created.ID, idCliente, created.Telefono, created.ClienteRecurrente, input.CreadoPorID))
	s.logger.Info("prospecto creado", "prospecto_id", created.ID, "id_cliente", idCliente, "recurrente", created.ClienteRecurrente)

	return Resolution{Prospecto: &created}, nil
}

func (s *Service) buildConfirmation(ctx context.Context, input RegistrationInput, matches []repository.Prospecto) (Resolution, error) {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	totalInteracciones, err := s.store.CountInteracciones(ctx, ids)
	if err != nil {
		return Resolution{}, err
	}
	totalDocumentos, err := s.store.CountDocumentos(ctx, ids)
	if err != nil {
		return Resolution{}, err
	}
	recientes, err := s.store.ListRecentInteracciones(ctx, ids, recentInteractionLimit)
	if err != nil {
		return Resolution{}, err
	}

	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = Match{
			Prospecto:    m,
			WhatsAppLink: phone.WhatsAppLink(m.IndicativoTelefono, m.Telefono),
		}
	}

	return Resolution{
		RequiresConfirmation:   true,
		Matches:                out,
		TotalInteracciones:     totalInteracciones,
		TotalDocumentos:        totalDocumentos,
		InteraccionesRecientes: recientes,
		Identidad:              suggestIdentity(matches),
		Candidato:              input,
	}, nil
}

// validateIndicativos rejects the whole registration when either country code
// is present and not a digit-only string of up to four characters. Blank codes
// pass: the primary defaults to 57 on create.
func validateIndicativos(input RegistrationInput) error {
	if ind := strings.TrimSpace(input.IndicativoTelefono); ind != "" && !domain.ValidIndicativo(ind) {
		return apperr.Validation("el indicativo debe tener hasta 4 dígitos")
	}
	if sec := strings.TrimSpace(input.IndicativoTelefonoSecundario); sec != "" && !domain.ValidIndicativo(sec) {
		return apperr.Validation("el indicativo secundario debe tener hasta 4 dígitos")
	}
	return nil
}

// suggestIdentity picks each identity field from the most recent match that
// carries it; matches arrive newest first.
func suggestIdentity(matches []repository.Prospecto) IdentitySuggestion {
	var sug IdentitySuggestion
	for _, m := range matches {
		if sug.Nombre == "" && m.Nombre != nil && strings.TrimSpace(*m.Nombre) != "" {
			sug.Nombre = *m.Nombre
		}
		if sug.Apellido == "" && m.Apellido != nil && strings.TrimSpace(*m.Apellido) != "" {
			sug.Apellido = *m.Apellido
		}
		if sug.CorreoElectronico == "" && m.CorreoElectronico != nil && strings.TrimSpace(*m.CorreoElectronico) != "" {
			sug.CorreoElectronico = *m.CorreoElectronico
		}
		if sug.Nombre != "" && sug.Apellido != "" && sug.CorreoElectronico != "" {
			break
		}
	}
	return sug
}

// applyIdentity fills identity fields the form left blank from the suggestion
// taken off the matched rows.
func applyIdentity(params *repository.CreateProspectoParams, sug IdentitySuggestion) {
	if params.Nombre == nil && sug.Nombre != "" {
		params.Nombre = &sug.Nombre
	}
	if params.Apellido == nil && sug.Apellido != "" {
		params.Apellido = &sug.Apellido
	}
	if params.CorreoElectronico == nil && sug.CorreoElectronico != "" {
		params.CorreoElectronico = &sug.CorreoElectronico
	}
}

func (s *Service) createParams(input RegistrationInput) repository.CreateProspectoParams {
	indicativo := strings.TrimSpace(input.IndicativoTelefono)
	if indicativo == "" {
		indicativo = "57"
	}

	completos := domain.TieneDatosCompletos(domain.DatosProspecto{
		CorreoElectronico: input.CorreoElectronico,
		FechaIda:          input.FechaIda,
		PasajerosAdultos:  input.PasajerosAdultos,
		PasajerosNinos:    input.PasajerosNinos,
		PasajerosInfantes: input.PasajerosInfantes,
		Destino:           input.Destino,
		CiudadOrigen:      input.CiudadOrigen,
	})

	adultos := input.PasajerosAdultos
	if adultos <= 0 {
		adultos = 1
	}

	return repository.CreateProspectoParams{
		Nombre:                       optional(input.Nombre),
		Apellido:                     optional(input.Apellido),
		CorreoElectronico:            optional(input.CorreoElectronico),
		Telefono:                     strings.TrimSpace(input.Telefono),
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
		AgenteAsignadoID:             input.AgenteAsignadoID,
		TieneDatosCompletos:          completos,
	}
}

func optional(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
