package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts authentication endpoints under /auth.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", handler.login)
		authGroup.POST("/logout", handler.logout)
	}
}

type httpHandler struct {
	service *Service
}

type loginRequest struct {
	Secret string `json:"secret" binding:"required,max=72"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func (h *httpHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
		return
	}

	session, err := h.service.Login(req.Secret)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			apperr.Abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, err)
			return
		}
		apperr.Abort(c, http.StatusInternalServerError, apperr.CodeInternal, err)
		return
	}

	maxAge := int(session.ExpiresAt.Sub(h.service.nowFunc()).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.service.CookieName(), session.Token, maxAge, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt.Unix()})
}

func (h *httpHandler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.service.CookieName(), "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}
