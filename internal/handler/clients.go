package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/service"
)

type ClientHandler struct {
	svc *service.ClientService
}

func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

// CreateClient godoc
// @Summary Register client application
// @Description The client_secret is only returned by this call.
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ClientCreate true "Client"
// @Success 200 {object} model.ClientCreateResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req model.ClientCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	res, err := h.svc.Create(c.Request.Context(), CurrentAccount(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListClients godoc
// @Summary List client applications
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {object} model.ClientsPublic
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	var page Page
	if err := c.ShouldBindQuery(&page); err != nil {
		writeBindError(c, err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), page.Skip, page.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetClient godoc
// @Summary Get client application
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param client_id path string true "Client ID"
// @Success 200 {object} model.ClientPublic
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/clients/{client_id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}
	client, err := h.svc.Get(c.Request.Context(), clientID)
	if err != nil {
		writeClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, client.Public())
}

// UpdateClient godoc
// @Summary Update client application
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param client_id path string true "Client ID"
// @Param request body model.ClientUpdate true "Fields to change"
// @Success 200 {object} model.ClientPublic
// @Failure 404 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/clients/{client_id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}
	var req model.ClientUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	client, err := h.svc.Update(c.Request.Context(), clientID, req)
	if err != nil {
		writeClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, client.Public())
}

// DeleteClient godoc
// @Summary Delete client application
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param client_id path string true "Client ID"
// @Success 200 {object} model.Message
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/clients/{client_id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), clientID); err != nil {
		writeClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Message{Message: "Client deleted successfully"})
}

func writeClientError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "Client not found")
		return
	}
	writeError(c, err)
}

func clientIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("client_id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, model.ValidationErrorResponse{
			Error:  "validation failed",
			Fields: []model.FieldError{{Field: "client_id", Message: "must be a uuid"}},
		})
		return uuid.Nil, false
	}
	return id, true
}
