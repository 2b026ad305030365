package domain

import (
	"testing"
	"time"
)

func TestTieneDatosCompletos(t *testing.T) {
	fecha := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		datos DatosProspecto
		want  bool
	}{
		{"bare phone record", DatosProspecto{PasajerosAdultos: 1}, false},
		{"whitespace only fields", DatosProspecto{CorreoElectronico: "  ", Destino: "\t", CiudadOrigen: " ", PasajerosAdultos: 1}, false},
		{"email alone", DatosProspecto{CorreoElectronico: "ana@example.com", PasajerosAdultos: 1}, true},
		{"departure date alone", DatosProspecto{FechaIda: &fecha, PasajerosAdultos: 1}, true},
		{"two adults", DatosProspecto{PasajerosAdultos: 2}, true},
		{"one adult one child", DatosProspecto{PasajerosAdultos: 1, PasajerosNinos: 1}, true},
		{"one adult one infant", DatosProspecto{PasajerosAdultos: 1, PasajerosInfantes: 1}, true},
		{"destination alone", DatosProspecto{Destino: "Cancún", PasajerosAdultos: 1}, true},
		{"origin alone", DatosProspecto{CiudadOrigen: "Bogotá", PasajerosAdultos: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TieneDatosCompletos(tt.datos); got != tt.want {
				t.Errorf("TieneDatosCompletos() = %v, want %v", got, tt.want)
			}
		})
	}
}
