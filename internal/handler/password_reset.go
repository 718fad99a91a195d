package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/service"
)

type PasswordResetHandler struct {
	svc *service.AuthService
}

func NewPasswordResetHandler(svc *service.AuthService) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

// RequestReset godoc
// @Summary Request password reset email
// @Description Always answers the same message for known and unknown emails.
// @Tags password-reset
// @Produce json
// @Param email query string true "Account email"
// @Success 200 {object} model.Message
// @Failure 422 {object} model.ValidationErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/v1/password-reset/request-password-reset [post]
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var req model.PasswordResetRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Message{Message: "Password reset email sent."})
}

// ResetPassword godoc
// @Summary Reset password
// @Tags password-reset
// @Accept json
// @Produce json
// @Param request body model.ResetPassword true "Reset token and new password"
// @Success 200 {object} model.Message
// @Failure 400 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/password-reset/reset-password [post]
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPassword
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Message{Message: "Password reset successfully."})
}
