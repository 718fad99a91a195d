package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/service"
)

type LoginHandler struct {
	svc *service.AuthService
}

func NewLoginHandler(svc *service.AuthService) *LoginHandler {
	return &LoginHandler{svc: svc}
}

// AccessToken godoc
// @Summary Login
// @Description OAuth2 compatible token login. username carries the email.
// @Tags login
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email"
// @Param password formData string true "Password"
// @Success 200 {object} model.Token
// @Failure 400 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Router /api/v1/login/access-token [post]
func (h *LoginHandler) AccessToken(c *gin.Context) {
	var form model.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		writeBindError(c, err)
		return
	}

	token, err := h.svc.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// TestToken godoc
// @Summary Test access token
// @Tags login
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserPublic
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/login/test-token [post]
func (h *LoginHandler) TestToken(c *gin.Context) {
	account := CurrentAccount(c)
	if account == nil {
		errorJSON(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, account.Public())
}

// TestClient godoc
// @Summary Test client credentials
// @Description HTTP Basic auth with client_id as the username and client_secret as the password.
// @Tags login
// @Produce json
// @Success 200 {object} model.ClientPublic
// @Failure 401 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Router /api/v1/login/test-client [post]
func TestClient(c *gin.Context) {
	client := CurrentClient(c)
	if client == nil {
		errorJSON(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, client.Public())
}
