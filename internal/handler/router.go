package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/accounts/internal/config"
	"github.com/kube-rca/accounts/internal/service"
)

// Services - 라우터가 사용하는 서비스 묶음. Google 은 비활성 시 nil
type Services struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Clients *service.ClientService
	Google  *service.GoogleAuthService
}

// NewRouter registers every route under cfg.APIPrefix.
func NewRouter(cfg config.HTTPConfig, svc Services, secureCookie bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(CORSMiddleware(cfg.CORSOrigins, true))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)

	api := router.Group(strings.TrimRight(cfg.APIPrefix, "/"))
	auth := AuthMiddleware(svc.Auth)
	superuser := SuperuserMiddleware()
	limited := RateLimitMiddleware(cfg.RateLimitRPS)

	login := NewLoginHandler(svc.Auth)
	api.POST("/login/access-token", limited, login.AccessToken)
	api.POST("/login/test-token", auth, login.TestToken)
	api.POST("/login/test-client", limited, ClientAuthMiddleware(svc.Clients), TestClient)

	reset := NewPasswordResetHandler(svc.Auth)
	api.POST("/password-reset/request-password-reset", limited, reset.RequestReset)
	api.POST("/password-reset/reset-password", limited, reset.ResetPassword)

	users := NewUserHandler(svc.Users)
	api.POST("/users/signup", limited, users.Signup)
	api.GET("/users", auth, superuser, users.ListUsers)
	api.POST("/users", auth, superuser, users.CreateUser)
	api.GET("/users/me", auth, users.ReadMe)
	api.PATCH("/users/me", auth, users.UpdateMe)
	api.DELETE("/users/me", auth, users.DeleteMe)
	api.PATCH("/users/me/password", auth, users.UpdatePasswordMe)
	api.GET("/users/:id", auth, users.GetUser)
	api.PATCH("/users/:id", auth, superuser, users.UpdateUser)
	api.DELETE("/users/:id", auth, superuser, users.DeleteUser)

	clients := NewClientHandler(svc.Clients)
	api.POST("/clients", auth, superuser, clients.CreateClient)
	api.GET("/clients", auth, superuser, clients.ListClients)
	api.GET("/clients/:client_id", auth, superuser, clients.GetClient)
	api.PUT("/clients/:client_id", auth, superuser, clients.UpdateClient)
	api.DELETE("/clients/:client_id", auth, superuser, clients.DeleteClient)

	if svc.Google != nil {
		google := NewGoogleHandler(svc.Google, secureCookie)
		api.GET("/auth/google/login", google.Login)
		api.GET("/auth/google/callback", limited, google.Callback)
	}

	return router
}
