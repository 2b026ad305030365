package lifecycle

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/apperr"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
)

type fakeStore struct {
	prospecto repository.Prospecto

	recorded    *repository.RecordInteractionParams
	uploaded    *repository.UploadDocumentParams
	reactivated bool
	reactMotivo string
}

func (f *fakeStore) GetByID(context.Context, int64) (repository.Prospecto, error) {
	return f.prospecto, nil
}

func (f *fakeStore) RecordInteraction(_ context.Context, params repository.RecordInteractionParams) error {
	f.recorded = &params
	return nil
}

func (f *fakeStore) UploadDocument(_ context.Context, params repository.UploadDocumentParams) (int64, string, error) {
	f.uploaded = &params
	return 11, "DOC-20260828-0011", nil
}

func (f *fakeStore) Reactivar(_ context.Context, _, _ int64, _ domain.Estado, motivo string) error {
	f.reactivated = true
	f.reactMotivo = motivo
	return nil
}

func (f *fakeStore) ListInteracciones(context.Context, int64) ([]repository.Interaccion, error) {
	return []repository.Interaccion{}, nil
}

func (f *fakeStore) ListHistorial(context.Context, int64) ([]repository.HistorialEntry, error) {
	return []repository.HistorialEntry{}, nil
}

func (f *fakeStore) ListDocumentos(context.Context, int64) ([]repository.Documento, error) {
	return []repository.Documento{}, nil
}

func (f *fakeStore) GetDocumento(context.Context, int64) (repository.Documento, error) {
	return repository.Documento{ID: 11, ProspectoID: 1, NombreArchivo: "cotizacion.pdf"}, nil
}

type fakeObjects struct {
	uploadedKey string
}

func (f *fakeObjects) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.uploadedKey = key
	return nil
}

func (f *fakeObjects) PresignedURL(_ context.Context, key, _ string) (string, error) {
	return "https://minio.local/" + key, nil
}

func newService(store *fakeStore, objects *fakeObjects) *Service {
	log := logger.New("development")
	return NewService(store, objects, platformevents.NewInMemoryBus(log), log)
}

func agente() Actor { return Actor{UsuarioID: 5, Rol: domain.RolAgente} }

func prospecto(estado domain.Estado) repository.Prospecto {
	agenteID := int64(5)
	return repository.Prospecto{ID: 1, Telefono: "3001234567", IndicativoTelefono: "57",
		Estado: estado, AgenteAsignadoID: &agenteID}
}

func TestRecordInteractionTransition(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoNuevo)}
	svc := newService(store, &fakeObjects{})

	err := svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{
		Descripcion: "Primera llamada",
		NuevoEstado: "en_seguimiento",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.recorded == nil {
		t.Fatal("interaction not recorded")
	}
	if store.recorded.EstadoNuevo == nil || *store.recorded.EstadoNuevo != domain.EstadoEnSeguimiento {
		t.Error("transition not forwarded to store")
	}
	if store.recorded.EstadoAnterior != domain.EstadoNuevo {
		t.Error("previous state not forwarded")
	}
}

func TestRecordInteractionRejectsBlankDescription(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoNuevo)}
	svc := newService(store, &fakeObjects{})

	err := svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{Descripcion: "   "})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
	if store.recorded != nil {
		t.Error("nothing may be written on validation failure")
	}
}

func TestRecordInteractionLostNeedsReason(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoCotizado)}
	svc := newService(store, &fakeObjects{})

	err := svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{
		Descripcion: "  ",
		NuevoEstado: "cerrado_perdido",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
	if !strings.Contains(err.Error(), "motivo de cierre") {
		t.Errorf("closing without reason must get the closing-specific message, got %q", err.Error())
	}
}

func TestRecordInteractionGuardsRollback(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoCotizado)}
	svc := newService(store, &fakeObjects{})

	err := svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{
		Descripcion: "volver a contactar",
		NuevoEstado: "en_seguimiento",
	})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want forbidden", apperr.GetKind(err))
	}

	err = svc.RecordInteraction(context.Background(), Actor{UsuarioID: 9, Rol: domain.RolSupervisor}, 1, InteractionInput{
		Descripcion: "volver a contactar",
		NuevoEstado: "en_seguimiento",
	})
	if err != nil {
		t.Fatalf("supervisor rollback must pass, got %v", err)
	}
}

func TestRecordInteractionRejectsUnknownState(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoNuevo)}
	svc := newService(store, &fakeObjects{})

	err := svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{
		Descripcion: "x",
		NuevoEstado: "pendiente",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestRecordInteractionForeignProspectForbidden(t *testing.T) {
	otro := int64(99)
	store := &fakeStore{prospecto: repository.Prospecto{ID: 1, Estado: domain.EstadoNuevo, AgenteAsignadoID: &otro}}
	svc := newService(store, &fakeObjects{})

	err := svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{Descripcion: "hola"})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want forbidden", apperr.GetKind(err))
	}
}

func TestUploadDocumentRejectsNonPDF(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoNuevo)}
	svc := newService(store, &fakeObjects{})

	_, err := svc.UploadDocument(context.Background(), agente(), 1, DocumentInput{
		NombreArchivo: "cotizacion.docx",
		Contenido:     bytes.NewReader([]byte("x")),
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestUploadDocumentDefaultsToCotizacion(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoEnSeguimiento)}
	objects := &fakeObjects{}
	svc := newService(store, objects)

	_, err := svc.UploadDocument(context.Background(), agente(), 1, DocumentInput{
		NombreArchivo: "Cotizacion Final.PDF",
		Contenido:     bytes.NewReader([]byte("%PDF-1.4")),
		Size:          8,
		ContentType:   "application/pdf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.uploaded == nil {
		t.Fatal("document not registered")
	}
	if store.uploaded.TipoDocumento != "cotizacion" {
		t.Errorf("tipo = %q, want default cotizacion", store.uploaded.TipoDocumento)
	}
	if store.uploaded.EstadoActual != domain.EstadoEnSeguimiento {
		t.Error("current state not forwarded for the forced transition")
	}
	if objects.uploadedKey == "" {
		t.Error("payload must be stored before registering")
	}
}

func TestRecordInteractionCotizadoAgentCredit(t *testing.T) {
	// Assigned prospect: the stat is credited to the holding agent.
	store := &fakeStore{prospecto: prospecto(domain.EstadoEnSeguimiento)}
	svc := newService(store, &fakeObjects{})

	err := svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{
		Descripcion: "Cotización enviada",
		NuevoEstado: "cotizado",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.recorded.AgenteID == nil || *store.recorded.AgenteID != 5 {
		t.Errorf("agente = %v, want the assigned agent", store.recorded.AgenteID)
	}

	// Unassigned prospect: no owning agent travels with the transition, so
	// the store skips the quotation stat until a quotation is uploaded.
	store = &fakeStore{prospecto: repository.Prospecto{ID: 1, Estado: domain.EstadoEnSeguimiento}}
	svc = newService(store, &fakeObjects{})

	err = svc.RecordInteraction(context.Background(), agente(), 1, InteractionInput{
		Descripcion: "Cotización enviada",
		NuevoEstado: "cotizado",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.recorded.AgenteID != nil {
		t.Errorf("agente = %v, want nil for an unassigned prospect", store.recorded.AgenteID)
	}
}

func TestUploadDocumentCreditsUploaderWhenUnassigned(t *testing.T) {
	store := &fakeStore{prospecto: repository.Prospecto{ID: 1, Estado: domain.EstadoEnSeguimiento}}
	svc := newService(store, &fakeObjects{})

	_, err := svc.UploadDocument(context.Background(), agente(), 1, DocumentInput{
		NombreArchivo: "cotizacion.pdf",
		TipoDocumento: "cotizacion",
		Contenido:     bytes.NewReader([]byte("%PDF-1.4")),
		Size:          8,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.uploaded.AgenteID == nil || *store.uploaded.AgenteID != 5 {
		t.Errorf("agente = %v, want the uploader when nobody is assigned", store.uploaded.AgenteID)
	}
}

func TestReactivarOnlyFromTerminal(t *testing.T) {
	store := &fakeStore{prospecto: prospecto(domain.EstadoCotizado)}
	svc := newService(store, &fakeObjects{})

	err := svc.Reactivar(context.Background(), agente(), 1, "volvió a escribir")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
	if store.reactivated {
		t.Error("non-terminal prospect must not be reactivated")
	}

	store.prospecto = prospecto(domain.EstadoCerradoPerdido)
	if err := svc.Reactivar(context.Background(), agente(), 1, "volvió a escribir"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.reactivated {
		t.Fatal("terminal prospect must be reactivated")
	}
	if !strings.HasPrefix(store.reactMotivo, "Prospecto reactivado") {
		t.Errorf("motivo = %q", store.reactMotivo)
	}
}
