package entry

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the authenticated entry operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, maxUploadBytes int64) {
	handler := &httpHandler{service: service, maxUploadBytes: maxUploadBytes}
	group.POST("/entries", handler.upload)
	group.GET("/entries", handler.list)
	group.GET("/entries/:id", handler.get)
	group.PATCH("/entries/:id", handler.edit)
	group.DELETE("/entries/:id", handler.delete)
}

// RegisterPublicRoutes mounts the share-link download route.
func RegisterPublicRoutes(router gin.IRoutes, service *Service) {
	handler := &httpHandler{service: service}
	router.GET("/e/:id", handler.download)
}

type httpHandler struct {
	service        *Service
	maxUploadBytes int64
}

func (h *httpHandler) upload(c *gin.Context) {
	uploads, opts, err := ParseUploadForm(c, h.maxUploadBytes)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if len(uploads) == 0 {
		apperr.Respond(c, ErrEmptyUpload)
		return
	}

	created := make([]Entry, 0, len(uploads))
	for _, u := range uploads {
		e, err := h.service.Upload(c.Request.Context(), u, opts)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		created = append(created, e)
	}

	c.JSON(http.StatusCreated, gin.H{"entries": created})
}

func (h *httpHandler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	entries, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *httpHandler) get(c *gin.Context) {
	e, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *httpHandler) edit(c *gin.Context) {
	var input EditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
		return
	}

	e, err := h.service.Edit(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *httpHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) download(c *gin.Context) {
	e, obj, err := h.service.Download(c.Request.Context(), c.Param("id"), Client{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	defer obj.Body.Close()

	disposition := "attachment"
	if c.Query("inline") == "1" {
		disposition = "inline"
	}

	c.Header("Content-Type", e.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": e.Filename}))
	c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, obj.Body); err != nil {
		_ = c.Error(err)
	}
}
