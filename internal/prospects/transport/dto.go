// Package transport defines the wire DTOs of the prospects module and their
// mapping to domain types.
package transport

import (
	"time"

	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/apperr"
	"crm_viajes_backend/platform/phone"
)

const dateLayout = "2006-01-02"

// ProspectoRequest is the registration/edit payload.
type ProspectoRequest struct {
	Nombre                       string `json:"nombre"`
	Apellido                     string `json:"apellido"`
	CorreoElectronico            string `json:"correo_electronico"`
	Telefono                     string `json:"telefono" binding:"required"`
	IndicativoTelefono           string `json:"indicativo_telefono"`
	TelefonoSecundario           string `json:"telefono_secundario"`
	IndicativoTelefonoSecundario string `json:"indicativo_telefono_secundario"`
	CiudadOrigen                 string `json:"ciudad_origen"`
	Destino                      string `json:"destino"`
	FechaIda                     string `json:"fecha_ida"`
	FechaVuelta                  string `json:"fecha_vuelta"`
	PasajerosAdultos             int    `json:"pasajeros_adultos"`
	PasajerosNinos               int    `json:"pasajeros_ninos"`
	PasajerosInfantes            int    `json:"pasajeros_infantes"`
	MedioIngresoID               *int64 `json:"medio_ingreso_id"`
	Observaciones                string `json:"observaciones"`
	ForzarNuevo                  bool   `json:"forzar_nuevo"`
}

// ParseDate converts an optional date string, DD/MM/YYYY first and
// YYYY-MM-DD as fallback.
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("02/01/2006", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperr.Validation("fecha inválida, use DD/MM/YYYY: " + raw)
	}
	return &t, nil
}

// ProspectoResponse is the wire form of a prospect.
type ProspectoResponse struct {
	ID                  int64   `json:"id"`
	IDCliente           *string `json:"id_cliente"`
	Nombre              *string `json:"nombre"`
	Apellido            *string `json:"apellido"`
	CorreoElectronico   *string `json:"correo_electronico"`
	Telefono            string  `json:"telefono"`
	IndicativoTelefono  string  `json:"indicativo_telefono"`
	TelefonoSecundario  *string `json:"telefono_secundario"`
	WhatsAppLink        string  `json:"whatsapp_link"`
	CiudadOrigen        *string `json:"ciudad_origen"`
	Destino             *string `json:"destino"`
	FechaIda            *string `json:"fecha_ida"`
	FechaVuelta         *string `json:"fecha_vuelta"`
	PasajerosAdultos    int     `json:"pasajeros_adultos"`
	PasajerosNinos      int     `json:"pasajeros_ninos"`
	PasajerosInfantes   int     `json:"pasajeros_infantes"`
	MedioIngresoID      *int64  `json:"medio_ingreso_id"`
	Observaciones       *string `json:"observaciones"`
	FechaRegistro       string  `json:"fecha_registro"`
	AgenteAsignadoID    *int64  `json:"agente_asignado_id"`
	Estado              string  `json:"estado"`
	TieneDatosCompletos bool    `json:"tiene_datos_completos"`
	ClienteRecurrente   bool    `json:"cliente_recurrente"`
	ProspectoOriginalID *int64  `json:"prospecto_original_id,omitempty"`
}

func ToProspectoResponse(p repository.Prospecto) ProspectoResponse {
	return ProspectoResponse{
		ID:                  p.ID,
		IDCliente:           p.IDCliente,
		Nombre:              p.Nombre,
		Apellido:            p.Apellido,
		CorreoElectronico:   p.CorreoElectronico,
		Telefono:            p.Telefono,
		IndicativoTelefono:  p.IndicativoTelefono,
		TelefonoSecundario:  p.TelefonoSecundario,
		WhatsAppLink:        phone.WhatsAppLink(p.IndicativoTelefono, p.Telefono),
		CiudadOrigen:        p.CiudadOrigen,
		Destino:             p.Destino,
		FechaIda:            formatDate(p.FechaIda),
		FechaVuelta:         formatDate(p.FechaVuelta),
		PasajerosAdultos:    p.PasajerosAdultos,
		PasajerosNinos:      p.PasajerosNinos,
		PasajerosInfantes:   p.PasajerosInfantes,
		MedioIngresoID:      p.MedioIngresoID,
		Observaciones:       p.Observaciones,
		FechaRegistro:       p.FechaRegistro.Format(time.RFC3339),
		AgenteAsignadoID:    p.AgenteAsignadoID,
		Estado:              string(p.Estado),
		TieneDatosCompletos: p.TieneDatosCompletos,
		ClienteRecurrente:   p.ClienteRecurrente,
		ProspectoOriginalID: p.ProspectoOriginalID,
	}
}

func ToProspectoResponses(items []repository.Prospecto) []ProspectoResponse {
	out := make([]ProspectoResponse, len(items))
	for i, p := range items {
		out[i] = ToProspectoResponse(p)
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// InteraccionResponse is the wire form of an interaction.
type InteraccionResponse struct {
	ID              int64   `json:"id"`
	ProspectoID     *int64  `json:"prospecto_id,omitempty"`
	UsuarioID       *int64  `json:"usuario_id"`
	TipoInteraccion *string `json:"tipo_interaccion"`
	Descripcion     string  `json:"descripcion"`
	FechaCreacion   string  `json:"fecha_creacion"`
	EstadoAnterior  *string `json:"estado_anterior,omitempty"`
	EstadoNuevo     *string `json:"estado_nuevo,omitempty"`
}

func ToInteraccionResponses(items []repository.Interaccion) []InteraccionResponse {
	out := make([]InteraccionResponse, len(items))
	for i, item := range items {
		out[i] = InteraccionResponse{
			ID:              item.ID,
			ProspectoID:     item.ProspectoID,
			UsuarioID:       item.UsuarioID,
			TipoInteraccion: item.TipoInteraccion,
			Descripcion:     item.Descripcion,
			FechaCreacion:   item.FechaCreacion.Format(time.RFC3339),
			EstadoAnterior:  item.EstadoAnterior,
			EstadoNuevo:     item.EstadoNuevo,
		}
	}
	return out
}

// HistorialResponse is the wire form of an audit trail entry.
type HistorialResponse struct {
	ID             int64   `json:"id"`
	EstadoAnterior *string `json:"estado_anterior"`
	EstadoNuevo    string  `json:"estado_nuevo"`
	UsuarioID      *int64  `json:"usuario_id"`
	FechaCambio    string  `json:"fecha_cambio"`
	Comentario     *string `json:"comentario,omitempty"`
}

func ToHistorialResponses(items []repository.HistorialEntry) []HistorialResponse {
	out := make([]HistorialResponse, len(items))
	for i, item := range items {
		out[i] = HistorialResponse{
			ID:             item.ID,
			EstadoAnterior: item.EstadoAnterior,
			EstadoNuevo:    item.EstadoNuevo,
			UsuarioID:      item.UsuarioID,
			FechaCambio:    item.FechaCambio.Format(time.RFC3339),
			Comentario:     item.Comentario,
		}
	}
	return out
}

// DocumentoResponse is the wire form of a stored document.
type DocumentoResponse struct {
	ID            int64   `json:"id"`
	IDDocumento   *string `json:"id_documento"`
	ProspectoID   int64   `json:"prospecto_id"`
	NombreArchivo string  `json:"nombre_archivo"`
	TipoDocumento string  `json:"tipo_documento"`
	FechaSubida   string  `json:"fecha_subida"`
	Descripcion   *string `json:"descripcion,omitempty"`
}

func ToDocumentoResponse(d repository.Documento) DocumentoResponse {
	return DocumentoResponse{
		ID:            d.ID,
		IDDocumento:   d.IDDocumento,
		ProspectoID:   d.ProspectoID,
		NombreArchivo: d.NombreArchivo,
		TipoDocumento: d.TipoDocumento,
		FechaSubida:   d.FechaSubida.Format(time.RFC3339),
		Descripcion:   d.Descripcion,
	}
}

func ToDocumentoResponses(items []repository.Documento) []DocumentoResponse {
	out := make([]DocumentoResponse, len(items))
	for i, d := range items {
		out[i] = ToDocumentoResponse(d)
	}
	return out
}
