package email

import "fmt"

// AssignmentBody renders the email sent to an agent when a prospect is
// assigned to them.
func AssignmentBody(agente, idCliente, nombre string) (subject, body string) {
	subject = "Nuevo prospecto asignado: " + idCliente
	body = fmt.Sprintf(`<html><body>
<p>Hola %s,</p>
<p>Se te asignó el prospecto <strong>%s</strong> (%s).</p>
<p>Ingresa al portal para registrar el primer contacto.</p>
</body></html>`, agente, idCliente, nombre)
	return subject, body
}

// FollowUpBody renders the scheduled follow-up reminder.
func FollowUpBody(agente, idCliente string) (subject, body string) {
	subject = "Recordatorio de seguimiento: " + idCliente
	body = fmt.Sprintf(`<html><body>
<p>Hola %s,</p>
<p>El prospecto <strong>%s</strong> tiene un seguimiento programado para hoy.</p>
</body></html>`, agente, idCliente)
	return subject, body
}

// InactivityBody renders the inactivity alert.
func InactivityBody(agente, idCliente string, dias int) (subject, body string) {
	subject = "Prospecto sin actividad: " + idCliente
	body = fmt.Sprintf(`<html><body>
<p>Hola %s,</p>
<p>El prospecto <strong>%s</strong> lleva %d días sin interacciones registradas.</p>
</body></html>`, agente, idCliente, dias)
	return subject, body
}
