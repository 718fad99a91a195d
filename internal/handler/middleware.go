package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/service"
)

const (
	currentAccountKey = "current_account"
	currentClientKey  = "current_client"
	limiterTTL        = time.Hour
)

// AuthMiddleware resolves the bearer token to the stored account.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			errorJSON(c, http.StatusUnauthorized, "Not authenticated")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			errorJSON(c, http.StatusUnauthorized, "Not authenticated")
			c.Abort()
			return
		}

		account, err := authService.CurrentAccount(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				errorJSON(c, http.StatusNotFound, "User not found")
			} else {
				writeError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(currentAccountKey, account)
		c.Next()
	}
}

// SuperuserMiddleware must run after AuthMiddleware.
func SuperuserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil || !account.IsSuperuser {
			errorJSON(c, http.StatusForbidden, "The user doesn't have enough privileges")
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentAccount(c *gin.Context) *model.Account {
	if value, ok := c.Get(currentAccountKey); ok {
		if account, ok := value.(*model.Account); ok {
			return account
		}
	}
	return nil
}

// ClientAuthMiddleware checks HTTP Basic client_id:client_secret credentials.
func ClientAuthMiddleware(clients *service.ClientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, secret, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="clients"`)
			errorJSON(c, http.StatusUnauthorized, "Not authenticated")
			c.Abort()
			return
		}
		clientID, err := uuid.Parse(id)
		if err != nil {
			errorJSON(c, http.StatusUnauthorized, "Invalid client credentials")
			c.Abort()
			return
		}

		client, err := clients.Authenticate(c.Request.Context(), clientID, secret)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				errorJSON(c, http.StatusUnauthorized, "Invalid client credentials")
			} else {
				writeError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(currentClientKey, client)
		c.Next()
	}
}

func CurrentClient(c *gin.Context) *model.ClientApplication {
	if value, ok := c.Get(currentClientKey); ok {
		if client, ok := value.(*model.ClientApplication); ok {
			return client
		}
	}
	return nil
}

// RateLimitMiddleware limits requests per client IP. rps <= 0 disables it.
func RateLimitMiddleware(rps float64) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: limiterTTL})
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	lmt.SetMessage("Too many requests")

	return func(c *gin.Context) {
		if httpErr := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpErr != nil {
			errorJSON(c, httpErr.StatusCode, httpErr.Message)
			c.Abort()
			return
		}
		c.Next()
	}
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
