package guestlink

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/abduss/goshare/internal/chunked"
	"github.com/abduss/goshare/internal/entry"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts guest link management under the authenticated router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/guest-links", handler.create)
	group.GET("/guest-links", handler.list)
	group.GET("/guest-links/:linkID", handler.get)
	group.DELETE("/guest-links/:linkID", handler.delete)
}

// RegisterPublicRoutes mounts the anonymous upload endpoints. Callers attach rate limiting to group.
func RegisterPublicRoutes(group gin.IRoutes, service *Service, maxUploadBytes int64) {
	handler := &httpHandler{service: service, maxUploadBytes: maxUploadBytes}
	group.GET("/g/:linkID", handler.info)
	group.POST("/g/:linkID/entries", handler.upload)
	group.POST("/g/:linkID/uploads", handler.initUpload)
	group.PUT("/g/:linkID/uploads/:uploadID/parts/:partNumber", handler.uploadPart)
	group.POST("/g/:linkID/uploads/:uploadID/complete", handler.complete)
	group.DELETE("/g/:linkID/uploads/:uploadID", handler.abort)
}

type httpHandler struct {
	service        *Service
	maxUploadBytes int64
}

func (h *httpHandler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
		return
	}

	link, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *httpHandler) list(c *gin.Context) {
	links, err := h.service.List(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if links == nil {
		links = []Link{}
	}
	c.JSON(http.StatusOK, gin.H{"guest_links": links})
}

func (h *httpHandler) get(c *gin.Context) {
	link, err := h.service.Get(c.Request.Context(), c.Param("linkID"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *httpHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("linkID")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) info(c *gin.Context) {
	link, err := h.service.Get(c.Request.Context(), c.Param("linkID"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if link.Expired(h.service.nowFunc()) {
		rejectVerdict(c, Verdict{Reason: RejectLinkExpired})
		return
	}
	c.JSON(http.StatusOK, link.public())
}

func (h *httpHandler) upload(c *gin.Context) {
	uploads, opts, err := entry.ParseUploadForm(c, h.maxUploadBytes)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	result, err := h.service.Upload(c.Request.Context(), c.Param("linkID"), uploads, opts.Note)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !result.Verdict.Allowed() {
		rejectVerdict(c, result.Verdict)
		return
	}

	ids := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		ids[i] = e.ID
	}
	c.JSON(http.StatusCreated, gin.H{"entry_ids": ids})
}

func (h *httpHandler) initUpload(c *gin.Context) {
	var in chunked.InitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
		return
	}

	result, verdict, err := h.service.InitUpload(c.Request.Context(), c.Param("linkID"), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !verdict.Allowed() {
		rejectVerdict(c, verdict)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *httpHandler) uploadPart(c *gin.Context) {
	partNumber, err := chunked.ParsePartNumber(c.Param("partNumber"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	data, err := chunked.ReadPart(c.Request.Body)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	n, verdict, err := h.service.UploadPart(c.Request.Context(), c.Param("linkID"), c.Param("uploadID"), partNumber, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !verdict.Allowed() {
		rejectVerdict(c, verdict)
		return
	}
	c.JSON(http.StatusOK, gin.H{"part_number": n})
}

func (h *httpHandler) complete(c *gin.Context) {
	result, verdict, err := h.service.Complete(c.Request.Context(), c.Param("linkID"), c.Param("uploadID"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !verdict.Allowed() {
		rejectVerdict(c, verdict)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) abort(c *gin.Context) {
	result, err := h.service.Abort(c.Request.Context(), c.Param("linkID"), c.Param("uploadID"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "released": result.ReleaseErr == nil})
}

func rejectVerdict(c *gin.Context, v Verdict) {
	status, code := http.StatusForbidden, apperr.CodeInvalidRequest
	switch v.Reason {
	case RejectLinkExpired:
		status, code = http.StatusGone, apperr.CodeLinkExpired
	case RejectQuotaExceeded:
		status, code = http.StatusTooManyRequests, apperr.CodeQuotaExceeded
	case RejectFileTooLarge:
		status, code = http.StatusRequestEntityTooLarge, apperr.CodeFileTooLarge
	}

	body := gin.H{"code": code, "error": v.Message(), "reason": v.Reason}
	switch v.Reason {
	case RejectQuotaExceeded:
		body["remaining"] = v.Remaining
	case RejectFileTooLarge:
		body["filename"] = v.Filename
		body["max_bytes"] = v.MaxBytes
	}
	c.AbortWithStatusJSON(status, body)
}
