package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/gin-gonic/gin"
)

type contextKey string

const claimsContextKey contextKey = "goshareSession"

// AuthMiddleware accepts a bearer token or the session cookie and rejects everything else.
func AuthMiddleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(service.CookieName()); err == nil {
				token = cookie
			}
		}
		if token == "" {
			apperr.Abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, errors.New("missing session token"))
			return
		}

		claims, err := service.ValidateToken(token)
		if err != nil {
			apperr.Abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, errors.New("invalid or expired session"))
			return
		}

		c.Set(string(claimsContextKey), claims)
		c.Next()
	}
}

// CurrentSession extracts the validated session claims from the context.
func CurrentSession(c *gin.Context) (Claims, bool) {
	value, exists := c.Get(string(claimsContextKey))
	if !exists {
		return Claims{}, false
	}
	claims, ok := value.(Claims)
	return claims, ok
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("bearer "):])
}
