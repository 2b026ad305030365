package domain

import (
	"strings"
	"time"
)

// DatosProspecto carries the fields that feed the data-completeness
// classification.
type DatosProspecto struct {
	CorreoElectronico string
	FechaIda          *time.Time
	PasajerosAdultos  int
	PasajerosNinos    int
	PasajerosInfantes int
	Destino           string
	CiudadOrigen      string
}

// TieneDatosCompletos classifies a prospect as having complete data when it
// carries anything beyond a bare phone number: an email, a departure date,
// extra passengers, a destination or an origin city. The result is frozen on
// the record at create/edit time, not recomputed on read.
func TieneDatosCompletos(d DatosProspecto) bool {
	tieneEmail := strings.TrimSpace(d.CorreoElectronico) != ""
	tieneFechas := d.FechaIda != nil
	tienePasajeros := d.PasajerosAdultos > 1 || d.PasajerosNinos > 0 || d.PasajerosInfantes > 0
	tieneDestino := strings.TrimSpace(d.Destino) != ""
	tieneOrigen := strings.TrimSpace(d.CiudadOrigen) != ""

	return tieneEmail || tieneFechas || tienePasajeros || tieneDestino || tieneOrigen
}
