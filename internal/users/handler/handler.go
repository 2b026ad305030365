// Package handler exposes account administration endpoints.
package handler

import (
	"net/http"
	"strconv"

	"crm_viajes_backend/internal/users/service"
	"crm_viajes_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	TipoUsuario string `json:"tipo_usuario"`
	Activo      bool   `json:"activo"`
}

func toResponse(u service.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, TipoUsuario: u.TipoUsuario, Activo: u.Activo}
}

type createRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	TipoUsuario string `json:"tipo_usuario" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "datos de usuario inválidos", err.Error())
		return
	}

	user, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		TipoUsuario: req.TipoUsuario,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toResponse(user))
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context(), c.Query("tipo_usuario"), c.Query("solo_activos") == "true")
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toResponse(u)
	}
	httpkit.OK(c, gin.H{"usuarios": out, "total": len(out)})
}

// ListAgentes feeds the assignment picker; any authenticated user may call it.
func (h *Handler) ListAgentes(c *gin.Context) {
	agentes, err := h.svc.ListAgentes(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]userResponse, len(agentes))
	for i, u := range agentes {
		out[i] = toResponse(u)
	}
	httpkit.OK(c, gin.H{"agentes": out})
}

type updateRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	TipoUsuario string `json:"tipo_usuario"`
	Activo      *bool  `json:"activo"`
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "datos de usuario inválidos", err.Error())
		return
	}

	user, err := h.svc.Update(c.Request.Context(), id, service.UpdateInput{
		Email:       req.Email,
		Password:    req.Password,
		TipoUsuario: req.TipoUsuario,
		Activo:      req.Activo,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(user))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if err := h.svc.Delete(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "usuario eliminado"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "id inválido", nil)
		return 0, false
	}
	return id, true
}
