// Package domain holds the prospect lifecycle rules: lifecycle states, user
// roles, the forward-progress transition guard, data-completeness
// classification and human-facing identifier generation.
package domain

import "crm_viajes_backend/platform/apperr"

// Estado is the lifecycle state of a prospect.
type Estado string

const (
	EstadoNuevo          Estado = "nuevo"
	EstadoEnSeguimiento  Estado = "en_seguimiento"
	EstadoCotizado       Estado = "cotizado"
	EstadoGanado         Estado = "ganado"
	EstadoCerradoPerdido Estado = "cerrado_perdido"
)

// stateOrder is the total order over the funnel states used by the
// forward-progress guard. Terminal states share the top of the order: they
// are reachable from any non-terminal state but not comparable to each other.
var stateOrder = map[Estado]int{
	EstadoNuevo:          0,
	EstadoEnSeguimiento:  1,
	EstadoCotizado:       2,
	EstadoGanado:         3,
	EstadoCerradoPerdido: 4,
}

// AllEstados lists the valid lifecycle states in funnel order.
func AllEstados() []Estado {
	return []Estado{EstadoNuevo, EstadoEnSeguimiento, EstadoCotizado, EstadoGanado, EstadoCerradoPerdido}
}

// ParseEstado converts a raw string into an Estado, rejecting unknown values.
func ParseEstado(raw string) (Estado, error) {
	estado := Estado(raw)
	if _, ok := stateOrder[estado]; !ok {
		return "", apperr.Validation("estado de prospecto desconocido: " + raw)
	}
	return estado, nil
}

// Order returns the position of the state in the funnel order.
func (e Estado) Order() int {
	return stateOrder[e]
}

// IsTerminal reports whether the state ends the funnel.
func (e Estado) IsTerminal() bool {
	return e == EstadoGanado || e == EstadoCerradoPerdido
}

// Rol is a user role.
type Rol string

const (
	RolAdministrador Rol = "administrador"
	RolSupervisor    Rol = "supervisor"
	RolAgente        Rol = "agente"
)

// ParseRol converts a raw string into a Rol, rejecting unknown values.
func ParseRol(raw string) (Rol, error) {
	switch Rol(raw) {
	case RolAdministrador, RolSupervisor, RolAgente:
		return Rol(raw), nil
	}
	return "", apperr.Validation("rol de usuario desconocido: " + raw)
}

// IsPrivileged reports whether the role may regress a mature prospect.
func (r Rol) IsPrivileged() bool {
	return r == RolAdministrador || r == RolSupervisor
}

// CheckTransition applies the forward-progress guard: once a prospect reaches
// cotizado (or a terminal state), only privileged roles may move it to an
// earlier funnel position. Forward and lateral moves are always allowed.
func CheckTransition(current, next Estado, actor Rol) error {
	if next == current {
		return nil
	}
	if current.Order() >= EstadoCotizado.Order() &&
		next.Order() < current.Order() &&
		!actor.IsPrivileged() {
		return apperr.Forbidden("no puede regresar a un estado anterior")
	}
	return nil
}
