package chunked

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the authenticated multipart endpoints under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, coordinator *Coordinator) {
	handler := &httpHandler{coordinator: coordinator}
	group.POST("/uploads", handler.init)
	group.PUT("/uploads/:uploadID/parts/:partNumber", handler.uploadPart)
	group.POST("/uploads/:uploadID/complete", handler.complete)
	group.DELETE("/uploads/:uploadID", handler.abort)
}

type httpHandler struct {
	coordinator *Coordinator
}

func (h *httpHandler) init(c *gin.Context) {
	var in InitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
		return
	}
	in.GuestLinkID = nil

	result, err := h.coordinator.Init(c.Request.Context(), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *httpHandler) uploadPart(c *gin.Context) {
	partNumber, err := ParsePartNumber(c.Param("partNumber"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	data, err := ReadPart(c.Request.Body)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	n, err := h.coordinator.UploadPart(c.Request.Context(), c.Param("uploadID"), partNumber, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"part_number": n})
}

func (h *httpHandler) complete(c *gin.Context) {
	result, err := h.coordinator.Complete(c.Request.Context(), c.Param("uploadID"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) abort(c *gin.Context) {
	result, err := h.coordinator.Abort(c.Request.Context(), c.Param("uploadID"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "released": result.ReleaseErr == nil})
}

// ParsePartNumber parses a part number path segment.
func ParsePartNumber(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxPartNumber {
		return 0, ErrInvalidPartNumber
	}
	return n, nil
}

// ReadPart buffers one part body, refusing anything above MaxPartSize.
func ReadPart(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read part body: %v", apperr.ErrInvalidArgument, err)
	}
	if len(data) > MaxPartSize {
		return nil, ErrPartTooLarge
	}
	return data, nil
}
