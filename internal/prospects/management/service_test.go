package management

import (
	"context"
	"testing"

	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/apperr"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
)

type fakeStore struct {
	prospecto repository.Prospecto

	updated     *repository.UpdateProspectoParams
	deleted     bool
	assignedTo  *int64
	listParams  *repository.ListParams
	renamed     [2]string
	globalDesc  string
	searchedCot string
	searchedDoc string
	searchedCli string
}

func (f *fakeStore) GetByID(context.Context, int64) (repository.Prospecto, error) {
	return f.prospecto, nil
}

func (f *fakeStore) Update(_ context.Context, _ int64, params repository.UpdateProspectoParams) (repository.Prospecto, error) {
	f.updated = &params
	return f.prospecto, nil
}

func (f *fakeStore) UpdateViaje(_ context.Context, _ int64, _ repository.UpdateViajeParams, _ repository.SystemInteraction) (repository.Prospecto, error) {
	return f.prospecto, nil
}

func (f *fakeStore) Delete(context.Context, int64) error {
	f.deleted = true
	return nil
}

func (f *fakeStore) SetAgente(_ context.Context, _ int64, agenteID *int64) (repository.Prospecto, error) {
	f.assignedTo = agenteID
	return f.prospecto, nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) ([]repository.Prospecto, int, error) {
	f.listParams = &params
	return []repository.Prospecto{}, 0, nil
}

func (f *fakeStore) ListClosed(context.Context, repository.ClosedListParams) ([]repository.Prospecto, error) {
	return []repository.Prospecto{}, nil
}

func (f *fakeStore) FindByHistorialTelefono(context.Context, string) ([]repository.Prospecto, error) {
	return []repository.Prospecto{f.prospecto}, nil
}

func (f *fakeStore) FindByIDCliente(_ context.Context, id string) (repository.Prospecto, error) {
	f.searchedCli = id
	return f.prospecto, nil
}

func (f *fakeStore) FindProspectoByIDDocumento(_ context.Context, id string) (repository.Prospecto, error) {
	f.searchedDoc = id
	return f.prospecto, nil
}

func (f *fakeStore) FindProspectoByIDCotizacion(_ context.Context, id string) (repository.Prospecto, error) {
	f.searchedCot = id
	return f.prospecto, nil
}

func (f *fakeStore) ListDestinos(context.Context, string) ([]string, error) {
	return []string{"Cancún"}, nil
}

func (f *fakeStore) RenameDestino(_ context.Context, oldD, newD string) (int64, error) {
	f.renamed = [2]string{oldD, newD}
	return 3, nil
}

func (f *fakeStore) InsertGlobalInteraccion(_ context.Context, _ int64, desc string) error {
	f.globalDesc = desc
	return nil
}

func newService(store *fakeStore) *Service {
	log := logger.New("development")
	return NewService(store, platformevents.NewInMemoryBus(log), log)
}

func ownProspecto() repository.Prospecto {
	agenteID := int64(5)
	return repository.Prospecto{ID: 1, Telefono: "3001234567", IndicativoTelefono: "57",
		Estado: domain.EstadoNuevo, AgenteAsignadoID: &agenteID}
}

var agente = Actor{UsuarioID: 5, Rol: domain.RolAgente}

func TestUpdateValidatesIndicativo(t *testing.T) {
	store := &fakeStore{prospecto: ownProspecto()}
	svc := newService(store)

	tests := []struct {
		indicativo string
		wantErr    bool
	}{
		{"57", false},
		{"1", false},
		{"1809", false},
		{"", false}, // defaults to 57
		{"+57", true},
		{"12345", true},
		{"5a", true},
	}
	for _, tt := range tests {
		_, err := svc.Update(context.Background(), agente, 1, UpdateInput{
			Telefono:           "3001234567",
			IndicativoTelefono: tt.indicativo,
		})
		if tt.wantErr && apperr.GetKind(err) != apperr.KindValidation {
			t.Errorf("indicativo %q: expected validation error, got %v", tt.indicativo, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("indicativo %q: unexpected error %v", tt.indicativo, err)
		}
	}
}

func TestUpdateValidatesIndicativoSecundario(t *testing.T) {
	store := &fakeStore{prospecto: ownProspecto()}
	svc := newService(store)

	_, err := svc.Update(context.Background(), agente, 1, UpdateInput{
		Telefono:                     "3001234567",
		TelefonoSecundario:           "3109876543",
		IndicativoTelefonoSecundario: "+1",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
	if store.updated != nil {
		t.Error("nothing may be written on validation failure")
	}

	if _, err := svc.Update(context.Background(), agente, 1, UpdateInput{
		Telefono:                     "3001234567",
		TelefonoSecundario:           "3109876543",
		IndicativoTelefonoSecundario: "1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateRecomputesCompleteness(t *testing.T) {
	store := &fakeStore{prospecto: ownProspecto()}
	svc := newService(store)

	if _, err := svc.Update(context.Background(), agente, 1, UpdateInput{
		Telefono: "3001234567",
		Destino:  "Cartagena",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.updated == nil || !store.updated.TieneDatosCompletos {
		t.Error("destination must flip the completeness flag")
	}

	if _, err := svc.Update(context.Background(), agente, 1, UpdateInput{
		Telefono: "3001234567",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.updated.TieneDatosCompletos {
		t.Error("bare phone edit must clear the completeness flag")
	}
}

func TestUpdateForeignProspectForbidden(t *testing.T) {
	otro := int64(99)
	p := ownProspecto()
	p.AgenteAsignadoID = &otro
	svc := newService(&fakeStore{prospecto: p})

	_, err := svc.Update(context.Background(), agente, 1, UpdateInput{Telefono: "3001234567"})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want forbidden", apperr.GetKind(err))
	}
}

func TestListScopesAgentsToOwnProspects(t *testing.T) {
	store := &fakeStore{prospecto: ownProspecto()}
	svc := newService(store)

	if _, _, err := svc.List(context.Background(), agente, repository.ListParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listParams.AgenteID == nil || *store.listParams.AgenteID != agente.UsuarioID {
		t.Error("agent listing must be scoped to the agent")
	}

	admin := Actor{UsuarioID: 1, Rol: domain.RolAdministrador}
	if _, _, err := svc.List(context.Background(), admin, repository.ListParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listParams.AgenteID != nil {
		t.Error("privileged listing must not be scoped")
	}
}

func TestSearchByIdentifierDispatch(t *testing.T) {
	store := &fakeStore{prospecto: ownProspecto()}
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.SearchByIdentifier(ctx, agente, " CL-20260828-0001 "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.searchedCli != "CL-20260828-0001" {
		t.Errorf("client lookup got %q", store.searchedCli)
	}

	if _, err := svc.SearchByIdentifier(ctx, agente, "DOC-20260828-0002"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.searchedDoc != "DOC-20260828-0002" {
		t.Errorf("document lookup got %q", store.searchedDoc)
	}

	if _, err := svc.SearchByIdentifier(ctx, agente, "COT-20260828-0003"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.searchedCot != "COT-20260828-0003" {
		t.Errorf("quotation lookup got %q", store.searchedCot)
	}

	if _, err := svc.SearchByIdentifier(ctx, agente, "XX-1"); apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("unknown prefix must be a validation error, got %v", err)
	}
}

func TestRenameDestinoWritesGlobalLog(t *testing.T) {
	store := &fakeStore{prospecto: ownProspecto()}
	svc := newService(store)
	admin := Actor{UsuarioID: 1, Rol: domain.RolAdministrador}

	affected, err := svc.RenameDestino(context.Background(), admin, "cancun", "Cancún")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 3 {
		t.Errorf("affected = %d, want 3", affected)
	}
	if store.renamed != [2]string{"cancun", "Cancún"} {
		t.Errorf("renamed = %v", store.renamed)
	}
	if store.globalDesc == "" {
		t.Error("rename must leave a global audit entry")
	}

	if _, err := svc.RenameDestino(context.Background(), admin, "x", "x"); apperr.GetKind(err) != apperr.KindValidation {
		t.Error("identical spellings must be rejected")
	}
}
