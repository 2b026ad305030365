// Package handler exposes the prospect endpoints: registration with
// duplicate resolution, lifecycle operations, administration and search.
package handler

import (
	"net/http"
	"strconv"

	"crm_viajes_backend/internal/prospects/dedup"
	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/lifecycle"
	"crm_viajes_backend/internal/prospects/management"
	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/internal/prospects/transport"
	"crm_viajes_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	dedup      *dedup.Service
	lifecycle  *lifecycle.Service
	management *management.Service
}

func New(dedupSvc *dedup.Service, lifecycleSvc *lifecycle.Service, managementSvc *management.Service) *Handler {
	return &Handler{dedup: dedupSvc, lifecycle: lifecycleSvc, management: managementSvc}
}

func actorFrom(c *gin.Context) (int64, domain.Rol, bool) {
	identity := httpkit.MustGetIdentity(c)
	rol, err := domain.ParseRol(identity.Role())
	if err != nil {
		httpkit.Error(c, http.StatusForbidden, "rol desconocido", nil)
		return 0, "", false
	}
	return identity.UserID(), rol, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "id inválido", nil)
		return 0, false
	}
	return id, true
}

// Create resolves a registration: either a new prospect or the duplicate
// confirmation payload.
func (h *Handler) Create(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.ProspectoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "datos de prospecto inválidos", err.Error())
		return
	}

	fechaIda, err := transport.ParseDate(req.FechaIda)
	if httpkit.HandleError(c, err) {
		return
	}
	fechaVuelta, err := transport.ParseDate(req.FechaVuelta)
	if httpkit.HandleError(c, err) {
		return
	}

	input := dedup.RegistrationInput{
		Nombre:                       req.Nombre,
		Apellido:                     req.Apellido,
		CorreoElectronico:            req.CorreoElectronico,
		Telefono:                     req.Telefono,
		IndicativoTelefono:           req.IndicativoTelefono,
		TelefonoSecundario:           req.TelefonoSecundario,
		IndicativoTelefonoSecundario: req.IndicativoTelefonoSecundario,
		CiudadOrigen:                 req.CiudadOrigen,
		Destino:                      req.Destino,
		FechaIda:                     fechaIda,
		FechaVuelta:                  fechaVuelta,
		PasajerosAdultos:             req.PasajerosAdultos,
		PasajerosNinos:               req.PasajerosNinos,
		PasajerosInfantes:            req.PasajerosInfantes,
		MedioIngresoID:               req.MedioIngresoID,
		Observaciones:                req.Observaciones,
		ForzarNuevo:                  req.ForzarNuevo,
		CreadoPorID:                  usuarioID,
	}
	// Agents keep what they register.
	if rol == domain.RolAgente {
		input.AgenteAsignadoID = &usuarioID
	}

	res, err := h.dedup.Resolve(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}

	if res.RequiresConfirmation {
		matches := make([]gin.H, len(res.Matches))
		for i, m := range res.Matches {
			matches[i] = gin.H{
				"prospecto":     transport.ToProspectoResponse(m.Prospecto),
				"whatsapp_link": m.WhatsAppLink,
			}
		}
		cand := res.Candidato
		httpkit.OK(c, gin.H{
			"requiere_confirmacion":   true,
			"coincidencias":           matches,
			"total_interacciones":     res.TotalInteracciones,
			"total_documentos":        res.TotalDocumentos,
			"interacciones_recientes": transport.ToInteraccionResponses(res.InteraccionesRecientes),
			"sugerencia_identidad": gin.H{
				"nombre":             res.Identidad.Nombre,
				"apellido":           res.Identidad.Apellido,
				"correo_electronico": res.Identidad.CorreoElectronico,
			},
			// The submitted form comes back so confirming resubmits it as-is.
			"datos_enviados": gin.H{
				"nombre":                         cand.Nombre,
				"apellido":                       cand.Apellido,
				"correo_electronico":             cand.CorreoElectronico,
				"telefono":                       cand.Telefono,
				"indicativo_telefono":            cand.IndicativoTelefono,
				"telefono_secundario":            cand.TelefonoSecundario,
				"indicativo_telefono_secundario": cand.IndicativoTelefonoSecundario,
				"ciudad_origen":                  cand.CiudadOrigen,
				"destino":                        cand.Destino,
				"observaciones":                  cand.Observaciones,
			},
		})
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToProspectoResponse(*res.Prospecto))
}

func (h *Handler) List(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}

	params := repository.ListParams{
		SinAsignar: c.Query("sin_asignar") == "true",
		Asignados:  c.Query("asignados") == "true",
	}
	if raw := c.Query("estado"); raw != "" {
		estado, err := domain.ParseEstado(raw)
		if httpkit.HandleError(c, err) {
			return
		}
		params.Estado = &estado
	}
	if raw := c.Query("datos_completos"); raw != "" {
		value := raw == "true"
		params.DatosCompletos = &value
	}
	if destino := c.Query("destino"); destino != "" {
		params.Destino = &destino
	}
	var err error
	if params.Desde, err = transport.ParseDate(c.Query("desde")); httpkit.HandleError(c, err) {
		return
	}
	if params.Hasta, err = transport.ParseDate(c.Query("hasta")); httpkit.HandleError(c, err) {
		return
	}
	params.Limit, _ = strconv.Atoi(c.Query("limit"))
	params.Offset, _ = strconv.Atoi(c.Query("offset"))

	items, total, err := h.management.List(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"prospectos": transport.ToProspectoResponses(items), "total": total})
}

func (h *Handler) ListClosed(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}

	params := repository.ClosedListParams{}
	if destino := c.Query("destino"); destino != "" {
		params.Destino = &destino
	}
	var err error
	if params.RegistroDesde, err = transport.ParseDate(c.Query("registro_desde")); httpkit.HandleError(c, err) {
		return
	}
	if params.RegistroHasta, err = transport.ParseDate(c.Query("registro_hasta")); httpkit.HandleError(c, err) {
		return
	}
	if params.CierreDesde, err = transport.ParseDate(c.Query("cierre_desde")); httpkit.HandleError(c, err) {
		return
	}
	if params.CierreHasta, err = transport.ParseDate(c.Query("cierre_hasta")); httpkit.HandleError(c, err) {
		return
	}
	params.FiltrarPorCierre = params.CierreDesde != nil || params.CierreHasta != nil

	items, err := h.management.ListClosed(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"prospectos": transport.ToProspectoResponses(items), "total": len(items)})
}

func (h *Handler) Detail(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.lifecycle.GetDetail(c.Request.Context(), lifecycle.Actor{UsuarioID: usuarioID, Rol: rol}, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"prospecto":     transport.ToProspectoResponse(detail.Prospecto),
		"whatsapp_link": detail.WhatsAppLink,
		"interacciones": transport.ToInteraccionResponses(detail.Interacciones),
		"historial":     transport.ToHistorialResponses(detail.Historial),
		"documentos":    transport.ToDocumentoResponses(detail.Documentos),
	})
}

func (h *Handler) Update(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.ProspectoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "datos de prospecto inválidos", err.Error())
		return
	}
	fechaIda, err := transport.ParseDate(req.FechaIda)
	if httpkit.HandleError(c, err) {
		return
	}
	fechaVuelta, err := transport.ParseDate(req.FechaVuelta)
	if httpkit.HandleError(c, err) {
		return
	}

	updated, err := h.management.Update(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, id, management.UpdateInput{
		Nombre:                       req.Nombre,
		Apellido:                     req.Apellido,
		CorreoElectronico:            req.CorreoElectronico,
		Telefono:                     req.Telefono,
		IndicativoTelefono:           req.IndicativoTelefono,
		TelefonoSecundario:           req.TelefonoSecundario,
		IndicativoTelefonoSecundario: req.IndicativoTelefonoSecundario,
		CiudadOrigen:                 req.CiudadOrigen,
		Destino:                      req.Destino,
		FechaIda:                     fechaIda,
		FechaVuelta:                  fechaVuelta,
		PasajerosAdultos:             req.PasajerosAdultos,
		PasajerosNinos:               req.PasajerosNinos,
		PasajerosInfantes:            req.PasajerosInfantes,
		MedioIngresoID:               req.MedioIngresoID,
		Observaciones:                req.Observaciones,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProspectoResponse(updated))
}

type viajeRequest struct {
	CorreoElectronico  string `json:"correo_electronico"`
	CiudadOrigen       string `json:"ciudad_origen"`
	Destino            string `json:"destino"`
	FechaIda           string `json:"fecha_ida"`
	FechaVuelta        string `json:"fecha_vuelta"`
	PasajerosAdultos   int    `json:"pasajeros_adultos"`
	PasajerosNinos     int    `json:"pasajeros_ninos"`
	PasajerosInfantes  int    `json:"pasajeros_infantes"`
	TelefonoSecundario string `json:"telefono_secundario"`
}

func (h *Handler) UpdateViaje(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req viajeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "datos de viaje inválidos", err.Error())
		return
	}
	fechaIda, err := transport.ParseDate(req.FechaIda)
	if httpkit.HandleError(c, err) {
		return
	}
	fechaVuelta, err := transport.ParseDate(req.FechaVuelta)
	if httpkit.HandleError(c, err) {
		return
	}

	updated, err := h.management.UpdateViaje(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, id, management.ViajeInput{
		CorreoElectronico:  req.CorreoElectronico,
		CiudadOrigen:       req.CiudadOrigen,
		Destino:            req.Destino,
		FechaIda:           fechaIda,
		FechaVuelta:        fechaVuelta,
		PasajerosAdultos:   req.PasajerosAdultos,
		PasajerosNinos:     req.PasajerosNinos,
		PasajerosInfantes:  req.PasajerosInfantes,
		TelefonoSecundario: req.TelefonoSecundario,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProspectoResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.management.Delete(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "prospecto eliminado"})
}

type asignarRequest struct {
	AgenteID *int64 `json:"agente_id"`
}

func (h *Handler) Assign(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req asignarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "cuerpo inválido", nil)
		return
	}

	updated, err := h.management.Assign(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, id, req.AgenteID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProspectoResponse(updated))
}

type interaccionRequest struct {
	TipoInteraccion string `json:"tipo_interaccion"`
	Descripcion     string `json:"descripcion"`
	NuevoEstado     string `json:"nuevo_estado"`
}

func (h *Handler) CreateInteraccion(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req interaccionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "datos de interacción inválidos", nil)
		return
	}

	err := h.lifecycle.RecordInteraction(c.Request.Context(), lifecycle.Actor{UsuarioID: usuarioID, Rol: rol}, id, lifecycle.InteractionInput{
		TipoInteraccion: req.TipoInteraccion,
		Descripcion:     req.Descripcion,
		NuevoEstado:     req.NuevoEstado,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, gin.H{"message": "interacción registrada"})
}

func (h *Handler) UploadDocumento(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("archivo")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "archivo es obligatorio", nil)
		return
	}
	src, err := file.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "no se pudo leer el archivo", nil)
		return
	}
	defer src.Close()

	doc, err := h.lifecycle.UploadDocument(c.Request.Context(), lifecycle.Actor{UsuarioID: usuarioID, Rol: rol}, id, lifecycle.DocumentInput{
		NombreArchivo: file.Filename,
		TipoDocumento: c.PostForm("tipo_documento"),
		Descripcion:   c.PostForm("descripcion"),
		ContentType:   file.Header.Get("Content-Type"),
		Size:          file.Size,
		Contenido:     src,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToDocumentoResponse(doc))
}

func (h *Handler) DownloadDocumento(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	url, err := h.lifecycle.DocumentURL(c.Request.Context(), lifecycle.Actor{UsuarioID: usuarioID, Rol: rol}, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"url": url})
}

type reactivarRequest struct {
	Motivo string `json:"motivo"`
}

func (h *Handler) Reactivar(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reactivarRequest
	_ = c.ShouldBindJSON(&req)

	err := h.lifecycle.Reactivar(c.Request.Context(), lifecycle.Actor{UsuarioID: usuarioID, Rol: rol}, id, req.Motivo)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "prospecto reactivado"})
}

func (h *Handler) Search(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	identificador := c.Query("identificador")
	if identificador == "" {
		httpkit.Error(c, http.StatusBadRequest, "identificador es obligatorio", nil)
		return
	}

	p, err := h.management.SearchByIdentifier(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, identificador)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProspectoResponse(p))
}

func (h *Handler) CustomerHistory(c *gin.Context) {
	items, err := h.management.CustomerHistory(c.Request.Context(), c.Query("telefono"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"registros": transport.ToProspectoResponses(items), "total": len(items)})
}

func (h *Handler) Destinos(c *gin.Context) {
	destinos, err := h.management.Destinos(c.Request.Context(), c.Query("q"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"destinos": destinos})
}

type renameDestinoRequest struct {
	DestinoActual string `json:"destino_actual" binding:"required"`
	DestinoNuevo  string `json:"destino_nuevo" binding:"required"`
}

func (h *Handler) RenameDestino(c *gin.Context) {
	usuarioID, rol, ok := actorFrom(c)
	if !ok {
		return
	}
	var req renameDestinoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "destino_actual y destino_nuevo son obligatorios", nil)
		return
	}

	affected, err := h.management.RenameDestino(c.Request.Context(), management.Actor{UsuarioID: usuarioID, Rol: rol}, req.DestinoActual, req.DestinoNuevo)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"prospectos_actualizados": affected})
}
