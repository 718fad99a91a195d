package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/service"
)

const (
	msgUserExists        = "The user with this email already exists in the system."
	msgUserNotFound      = "The user with this id does not exist in the system"
	msgSuperuserNoDelete = "Super users are not allowed to delete themselves"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Page - skip/limit 쿼리 (기본 0/100)
type Page struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=1,max=1000"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {object} model.UsersPublic
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
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

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UserCreate true "New user"
// @Success 200 {object} model.UserPublic
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	account, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			errorJSON(c, http.StatusBadRequest, msgUserExists)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.Public())
}

// Signup godoc
// @Summary Register a new user
// @Description Open registration, enabled by ALLOW_SIGNUP.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.UserRegister true "Email and password"
// @Success 200 {object} model.UserPublic
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/users/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var req model.UserRegister
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	account, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			errorJSON(c, http.StatusBadRequest, msgUserExists)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.Public())
}

// ReadMe godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserPublic
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/users/me [get]
func (h *UserHandler) ReadMe(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentAccount(c).Public())
}

// UpdateMe godoc
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UserUpdateMe true "Fields to change"
// @Success 200 {object} model.UserPublic
// @Failure 409 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req model.UserUpdateMe
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	account, err := h.svc.UpdateMe(c.Request.Context(), CurrentAccount(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.Public())
}

// UpdatePasswordMe godoc
// @Summary Change own password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UpdatePassword true "Current and new password"
// @Success 200 {object} model.Message
// @Failure 400 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/users/me/password [patch]
func (h *UserHandler) UpdatePasswordMe(c *gin.Context) {
	var req model.UpdatePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.svc.UpdatePasswordMe(c.Request.Context(), CurrentAccount(c), req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Message{Message: "Password updated successfully"})
}

// DeleteMe godoc
// @Summary Delete current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/users/me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.svc.DeleteMe(c.Request.Context(), CurrentAccount(c)); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			errorJSON(c, http.StatusForbidden, msgSuperuserNoDelete)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Message{Message: "User deleted successfully"})
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.UserPublic
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	account, err := h.svc.Get(c.Request.Context(), CurrentAccount(c), id)
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.Public())
}

// UpdateUser godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body model.UserUpdate true "Fields to change"
// @Success 200 {object} model.UserPublic
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var req model.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	account, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.Public())
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), CurrentAccount(c), id); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			errorJSON(c, http.StatusForbidden, msgSuperuserNoDelete)
			return
		}
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Message{Message: "User deleted successfully"})
}

func writeUserError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, msgUserNotFound)
		return
	}
	writeError(c, err)
}

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, model.ValidationErrorResponse{
			Error:  "validation failed",
			Fields: []model.FieldError{{Field: "id", Message: "must be a uuid"}},
		})
		return uuid.Nil, false
	}
	return id, true
}
