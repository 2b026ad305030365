package domain

import (
	"testing"

	"crm_viajes_backend/platform/apperr"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		current Estado
		next    Estado
		actor   Rol
		wantErr bool
	}{
		{"forward from nuevo", EstadoNuevo, EstadoEnSeguimiento, RolAgente, false},
		{"forward skip to ganado", EstadoNuevo, EstadoGanado, RolAgente, false},
		{"same state is a no-op", EstadoCotizado, EstadoCotizado, RolAgente, false},
		{"agent rollback before cotizado", EstadoEnSeguimiento, EstadoNuevo, RolAgente, false},
		{"agent rollback from cotizado", EstadoCotizado, EstadoEnSeguimiento, RolAgente, true},
		{"agent rollback from ganado", EstadoGanado, EstadoCotizado, RolAgente, true},
		{"agent rollback from cerrado_perdido", EstadoCerradoPerdido, EstadoNuevo, RolAgente, true},
		{"supervisor rollback from cotizado", EstadoCotizado, EstadoNuevo, RolSupervisor, false},
		{"admin rollback from ganado", EstadoGanado, EstadoEnSeguimiento, RolAdministrador, false},
		{"agent close from cotizado", EstadoCotizado, EstadoCerradoPerdido, RolAgente, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.current, tt.next, tt.actor)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if apperr.GetKind(err) != apperr.KindForbidden {
					t.Errorf("kind = %v, want forbidden", apperr.GetKind(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseEstado(t *testing.T) {
	for _, estado := range AllEstados() {
		got, err := ParseEstado(string(estado))
		if err != nil {
			t.Fatalf("ParseEstado(%q): %v", estado, err)
		}
		if got != estado {
			t.Errorf("ParseEstado(%q) = %q", estado, got)
		}
	}

	if _, err := ParseEstado("abierto"); err == nil {
		t.Error("expected error for unknown estado")
	}
	if _, err := ParseEstado(""); err == nil {
		t.Error("expected error for empty estado")
	}
}

func TestEstadoIsTerminal(t *testing.T) {
	terminal := map[Estado]bool{
		EstadoNuevo:          false,
		EstadoEnSeguimiento:  false,
		EstadoCotizado:       false,
		EstadoGanado:         true,
		EstadoCerradoPerdido: true,
	}
	for estado, want := range terminal {
		if got := estado.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", estado, got, want)
		}
	}
}

func TestParseRol(t *testing.T) {
	for _, rol := range []Rol{RolAdministrador, RolSupervisor, RolAgente} {
		got, err := ParseRol(string(rol))
		if err != nil {
			t.Fatalf("ParseRol(%q): %v", rol, err)
		}
		if got != rol {
			t.Errorf("ParseRol(%q) = %q", rol, got)
		}
	}
	if _, err := ParseRol("gerente"); err == nil {
		t.Error("expected error for unknown rol")
	}
}
