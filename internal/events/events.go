// Package events defines the domain events exchanged between modules over
// the in-process bus.
package events

import (
	"time"

	"crm_viajes_backend/platform/events"
)

const (
	TypeProspectCreated      = "prospect.created"
	TypeProspectAssigned     = "prospect.assigned"
	TypeProspectStateChanged = "prospect.state_changed"
	TypeDocumentUploaded     = "prospect.document_uploaded"
)

// ProspectCreated fires after a prospect row is committed.
type ProspectCreated struct {
	events.BaseEvent
	ProspectoID int64
	IDCliente   string
	Telefono    string
	Recurrente  bool
	CreadoPorID int64
}

func NewProspectCreated(prospectoID int64, idCliente, telefono string, recurrente bool, creadoPorID int64) ProspectCreated {
	return ProspectCreated{
		BaseEvent:   events.NewBaseEvent(),
		ProspectoID: prospectoID,
		IDCliente:   idCliente,
		Telefono:    telefono,
		Recurrente:  recurrente,
		CreadoPorID: creadoPorID,
	}
}

func (ProspectCreated) EventName() string { return TypeProspectCreated }

// ProspectAssigned fires when a prospect is handed to an agent. The
// notification module listens to schedule the follow-up reminder and send the
// assignment email.
type ProspectAssigned struct {
	events.BaseEvent
	ProspectoID   int64
	IDCliente     string
	AgenteID      int64
	AsignadoPorID int64
}

func NewProspectAssigned(prospectoID int64, idCliente string, agenteID, asignadoPorID int64) ProspectAssigned {
	return ProspectAssigned{
		BaseEvent:     events.NewBaseEvent(),
		ProspectoID:   prospectoID,
		IDCliente:     idCliente,
		AgenteID:      agenteID,
		AsignadoPorID: asignadoPorID,
	}
}

func (ProspectAssigned) EventName() string { return TypeProspectAssigned }

// ProspectStateChanged fires after a committed lifecycle transition.
type ProspectStateChanged struct {
	events.BaseEvent
	ProspectoID    int64
	EstadoAnterior string
	EstadoNuevo    string
	UsuarioID      int64
	CambiadoEn     time.Time
}

func NewProspectStateChanged(prospectoID int64, estadoAnterior, estadoNuevo string, usuarioID int64) ProspectStateChanged {
	return ProspectStateChanged{
		BaseEvent:      events.NewBaseEvent(),
		ProspectoID:    prospectoID,
		EstadoAnterior: estadoAnterior,
		EstadoNuevo:    estadoNuevo,
		UsuarioID:      usuarioID,
		CambiadoEn:     time.Now(),
	}
}

func (ProspectStateChanged) EventName() string { return TypeProspectStateChanged }

// DocumentUploaded fires after a document is stored and registered.
type DocumentUploaded struct {
	events.BaseEvent
	ProspectoID   int64
	DocumentoID   int64
	IDDocumento   string
	TipoDocumento string
	UsuarioID     int64
}

func NewDocumentUploaded(prospectoID, documentoID int64, idDocumento, tipoDocumento string, usuarioID int64) DocumentUploaded {
	return DocumentUploaded{
		BaseEvent:     events.NewBaseEvent(),
		ProspectoID:   prospectoID,
		DocumentoID:   documentoID,
		IDDocumento:   idDocumento,
		TipoDocumento: tipoDocumento,
		UsuarioID:     usuarioID,
	}
}

func (DocumentUploaded) EventName() string { return TypeDocumentUploaded }
