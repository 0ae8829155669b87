package presigned

import (
	"fmt"
	"net/http"
	"time"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/gin-gonic/gin"
)

type httpHandler struct {
	service *Service
}

// RegisterRoutes mounts GET /entries/:id/link on the authenticated group.
func RegisterRoutes(rg *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	rg.GET("/entries/:id/link", handler.generate)
}

func (h *httpHandler) generate(c *gin.Context) {
	var ttl time.Duration
	if raw := c.Query("ttl"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			apperr.Respond(c, fmt.Errorf("invalid ttl %q: %w", raw, apperr.ErrInvalidArgument))
			return
		}
		ttl = parsed
	}

	link, err := h.service.Generate(c.Request.Context(), c.Param("id"), ttl)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}
