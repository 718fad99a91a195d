package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/accounts/internal/security"
	"github.com/kube-rca/accounts/internal/service"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600
)

type GoogleHandler struct {
	svc          *service.GoogleAuthService
	secureCookie bool
}

func NewGoogleHandler(svc *service.GoogleAuthService, secureCookie bool) *GoogleHandler {
	return &GoogleHandler{svc: svc, secureCookie: secureCookie}
}

// Login godoc
// @Summary Start Google login
// @Description Redirects to the Google consent page. State is kept in the oauth_state cookie.
// @Tags google
// @Success 307
// @Router /api/v1/auth/google/login [get]
func (h *GoogleHandler) Login(c *gin.Context) {
	state, _, err := security.NewOpaqueToken()
	if err != nil {
		writeError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusTemporaryRedirect, h.svc.LoginURL(state))
}

// Callback godoc
// @Summary Google login callback
// @Tags google
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State from the login redirect"
// @Success 200 {object} model.Token
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/auth/google/callback [get]
func (h *GoogleHandler) Callback(c *gin.Context) {
	expected, _ := c.Cookie(oauthStateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookie, true)

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		errorJSON(c, http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	code := c.Query("code")
	if code == "" {
		errorJSON(c, http.StatusBadRequest, "Missing authorization code")
		return
	}

	token, err := h.svc.Callback(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUpstream):
			// 공급자 에러 문구 그대로 노출
			errorJSON(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrUpstream.Error()+": "))
		case errors.Is(err, service.ErrInvalidInput):
			errorJSON(c, http.StatusBadRequest, "Missing user info from Google")
		default:
			writeError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, token)
}
