package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-auth/internal/service"
)

const authUserKey = "auth_user"

// AuthMiddleware resuelve el header Authorization a un AuthenticatedUser.
// Bearer se verifica como token; Basic prueba primero el username como
// token y despues como credencial de password.
func AuthMiddleware(logger *zap.Logger, auth *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			c.Abort()
			return
		}

		creds, ok := credentialsFromRequest(c.Request)
		if !ok {
			unauthorized(c)
			return
		}

		user, err := auth.AuthenticateFirst(c.Request.Context(), creds...)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				unauthorized(c)
				return
			}
			logger.Error("authentication failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not authenticate"})
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// GetAuthenticatedUser obtiene el usuario autenticado desde el contexto.
func GetAuthenticatedUser(c *gin.Context) (service.AuthenticatedUser, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return service.AuthenticatedUser{}, false
	}
	user, ok := val.(service.AuthenticatedUser)
	return user, ok
}

func credentialsFromRequest(r *http.Request) ([]service.Credential, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, false
	}
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		token := strings.TrimSpace(header[len("bearer "):])
		if token == "" {
			return nil, false
		}
		return []service.Credential{service.TokenCredential(token)}, true
	}
	username, password, ok := r.BasicAuth()
	if !ok || username == "" {
		return nil, false
	}
	return []service.Credential{
		service.TokenCredential(username),
		service.PasswordCredential(username, password),
	}, true
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="users"`)
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized access"})
	c.Abort()
}
