package dedup

import (
	"context"
	"testing"
	"time"

	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/apperr"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
)

type fakeStore struct {
	matches       []repository.Prospecto
	interacciones []repository.Interaccion
	countInter    int
	countDocs     int

	created       *repository.CreateProspectoParams
	createdLog    *repository.SystemInteraction
	queriedPhone  string
	queriedSecond *string
}

func (f *fakeStore) FindByPhones(_ context.Context, telefono string, secundario *string) ([]repository.Prospecto, error) {
	f.queriedPhone = telefono
	f.queriedSecond = secundario
	return f.matches, nil
}

func (f *fakeStore) CountInteracciones(context.Context, []int64) (int, error) {
	return f.countInter, nil
}

func (f *fakeStore) CountDocumentos(context.Context, []int64) (int, error) {
	return f.countDocs, nil
}

func (f *fakeStore) ListRecentInteracciones(_ context.Context, _ []int64, limit int) ([]repository.Interaccion, error) {
	if len(f.interacciones) > limit {
		return f.interacciones[:limit], nil
	}
	return f.interacciones, nil
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateProspectoParams, logEntry *repository.SystemInteraction) (repository.Prospecto, error) {
	f.created = &params
	f.createdLog = logEntry
	id := "CL-20260828-0042"
	return repository.Prospecto{
		ID:                  42,
		IDCliente:           &id,
		Telefono:            params.Telefono,
		ClienteRecurrente:   params.ClienteRecurrente,
		ProspectoOriginalID: params.ProspectoOriginalID,
		TieneDatosCompletos: params.TieneDatosCompletos,
		FechaRegistro:       time.Now(),
	}, nil
}

func str(s string) *string { return &s }

func newService(store *fakeStore) *Service {
	log := logger.New("development")
	return NewService(store, platformevents.NewInMemoryBus(log), log)
}

func TestResolveCreatesWhenNoMatches(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	res, err := svc.Resolve(context.Background(), RegistrationInput{
		Telefono:    " 3001234567 ",
		CreadoPorID: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RequiresConfirmation {
		t.Fatal("expected direct creation, got confirmation")
	}
	if res.Prospecto == nil {
		t.Fatal("expected created prospect")
	}
	if store.queriedPhone != "3001234567" {
		t.Errorf("queried phone = %q, want trimmed digits", store.queriedPhone)
	}
	if store.created.ClienteRecurrente {
		t.Error("fresh number must not be flagged recurring")
	}
	if store.created.IndicativoTelefono != "57" {
		t.Errorf("indicativo = %q, want default 57", store.created.IndicativoTelefono)
	}
	if store.created.TieneDatosCompletos {
		t.Error("bare phone registration must be incomplete")
	}
}

func TestResolveReturnsConfirmationOnMatch(t *testing.T) {
	older := repository.Prospecto{ID: 7, Telefono: "3001234567", IndicativoTelefono: "57",
		Nombre: str("Ana"), FechaRegistro: time.Now().Add(-48 * time.Hour)}
	newer := repository.Prospecto{ID: 9, Telefono: "3001234567", IndicativoTelefono: "57",
		CorreoElectronico: str("ana@example.com"), FechaRegistro: time.Now()}

	store := &fakeStore{
		matches:    []repository.Prospecto{newer, older},
		countInter: 8,
		countDocs:  3,
		interacciones: []repository.Interaccion{
			{ID: 1, Descripcion: "a"}, {ID: 2, Descripcion: "b"}, {ID: 3, Descripcion: "c"},
			{ID: 4, Descripcion: "d"}, {ID: 5, Descripcion: "e"}, {ID: 6, Descripcion: "f"},
		},
	}
	svc := newService(store)

	res, err := svc.Resolve(context.Background(), RegistrationInput{Telefono: "3001234567", CreadoPorID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.RequiresConfirmation {
		t.Fatal("expected confirmation")
	}
	if store.created != nil {
		t.Fatal("no prospect may be created before confirmation")
	}
	if len(res.Matches) != 2 {
		t.Fatalf("matches = %d, want the full union", len(res.Matches))
	}
	if res.TotalInteracciones != 8 || res.TotalDocumentos != 3 {
		t.Errorf("totals = %d/%d, want 8/3", res.TotalInteracciones, res.TotalDocumentos)
	}
	if len(res.InteraccionesRecientes) != 5 {
		t.Errorf("recent interactions = %d, want capped at 5", len(res.InteraccionesRecientes))
	}
	if res.Matches[0].WhatsAppLink != "https://wa.me/573001234567" {
		t.Errorf("whatsapp link = %q", res.Matches[0].WhatsAppLink)
	}
	// Identity backfill favors the newest match per field.
	if res.Identidad.CorreoElectronico != "ana@example.com" {
		t.Errorf("correo backfill = %q", res.Identidad.CorreoElectronico)
	}
	if res.Identidad.Nombre != "Ana" {
		t.Errorf("nombre backfill = %q, want fallback to older match", res.Identidad.Nombre)
	}
	// The submitted form travels back with the confirmation.
	if res.Candidato.Telefono != "3001234567" || res.Candidato.CreadoPorID != 1 {
		t.Errorf("candidato = %+v, want the submitted registration", res.Candidato)
	}
}

func TestResolveForzarNuevoLinksOriginal(t *testing.T) {
	idCliente := "CL-20250101-0007"
	store := &fakeStore{matches: []repository.Prospecto{
		{ID: 7, IDCliente: &idCliente, Telefono: "3001234567", FechaRegistro: time.Now()},
	}}
	svc := newService(store)

	res, err := svc.Resolve(context.Background(), RegistrationInput{
		Telefono:    "3001234567",
		ForzarNuevo: true,
		CreadoPorID: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RequiresConfirmation {
		t.Fatal("forzar_nuevo must bypass confirmation")
	}
	if store.created == nil || !store.created.ClienteRecurrente {
		t.Fatal("forced duplicate must be flagged recurring")
	}
	if store.created.ProspectoOriginalID == nil || *store.created.ProspectoOriginalID != 7 {
		t.Error("forced duplicate must link the most recent match")
	}
	if store.createdLog == nil {
		t.Error("recurring creation must write a system interaction")
	}
}

func TestResolveForzarNuevoBackfillsIdentity(t *testing.T) {
	store := &fakeStore{matches: []repository.Prospecto{
		{ID: 9, Telefono: "3001234567", CorreoElectronico: str("ana@example.com"), FechaRegistro: time.Now()},
		{ID: 7, Telefono: "3001234567", Nombre: str("Ana"), FechaRegistro: time.Now().Add(-48 * time.Hour)},
	}}
	svc := newService(store)

	if _, err := svc.Resolve(context.Background(), RegistrationInput{
		Telefono:    "3001234567",
		Apellido:    "Díaz",
		ForzarNuevo: true,
		CreadoPorID: 2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.created.Nombre == nil || *store.created.Nombre != "Ana" {
		t.Error("blank nombre must be backfilled from the matches")
	}
	if store.created.CorreoElectronico == nil || *store.created.CorreoElectronico != "ana@example.com" {
		t.Error("blank correo must be backfilled from the matches")
	}
	// Submitted values always win over the matches.
	if store.created.Apellido == nil || *store.created.Apellido != "Díaz" {
		t.Errorf("apellido = %v, want the submitted value kept", store.created.Apellido)
	}
}

func TestResolveRejectsBadIndicativo(t *testing.T) {
	tests := []struct{ indicativo, secundario string }{
		{"abc57", ""},
		{"12345", ""},
		{"+57", ""},
		{"", "+1"},
		{"57", "56789"},
	}
	for _, tt := range tests {
		store := &fakeStore{}
		svc := newService(store)

		_, err := svc.Resolve(context.Background(), RegistrationInput{
			Telefono:                     "3001234567",
			IndicativoTelefono:           tt.indicativo,
			TelefonoSecundario:           "3109876543",
			IndicativoTelefonoSecundario: tt.secundario,
			CreadoPorID:                  1,
		})
		if apperr.GetKind(err) != apperr.KindValidation {
			t.Errorf("indicativos %q/%q: kind = %v, want validation", tt.indicativo, tt.secundario, apperr.GetKind(err))
		}
		if store.created != nil || store.queriedPhone != "" {
			t.Errorf("indicativos %q/%q: nothing may be written or queried on rejection", tt.indicativo, tt.secundario)
		}
	}
}

func TestResolveSecondaryPhoneIsForwarded(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	if _, err := svc.Resolve(context.Background(), RegistrationInput{
		Telefono:           "3001234567",
		TelefonoSecundario: "3109876543",
		CreadoPorID:        1,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.queriedSecond == nil || *store.queriedSecond != "3109876543" {
		t.Error("secondary phone must participate in matching")
	}
}
