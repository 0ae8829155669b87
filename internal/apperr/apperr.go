// Package apperr holds the error families shared by the HTTP layer and the JSON
// error body every handler returns.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error families. Package sentinels wrap one of these so handlers can map a whole family to a status.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrTooLarge        = errors.New("payload too large")
)

var errUpstream = errors.New("storage backend unavailable")

// Error codes returned in the "code" field.
const (
	CodeInvalidRequest = "E_INVALID_REQUEST"
	CodeUnauthorized   = "E_UNAUTHORIZED"
	CodeNotFound       = "E_NOT_FOUND"
	CodeFileTooLarge   = "E_FILE_TOO_LARGE"
	CodeQuotaExceeded  = "E_QUOTA_EXCEEDED"
	CodeLinkExpired    = "E_LINK_EXPIRED"
	CodeRateLimited    = "E_RATE_LIMITED"
	CodeUpstream       = "E_UPSTREAM_FAILURE"
	CodeInternal       = "E_INTERNAL_ERROR"
)

// Body is the JSON payload of an error response.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// Abort stops the handler chain and writes the error body.
func Abort(c *gin.Context, status int, code string, err error) {
	c.Abort()
	_ = c.Error(err)
	c.PureJSON(status, Body{Code: code, Message: err.Error()})
}

// Respond maps err onto its family status. Anything outside the known families is an
// upstream failure; its detail goes to the request log, not the client.
func Respond(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, err)
	case errors.Is(err, ErrNotFound):
		Abort(c, http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, ErrTooLarge):
		Abort(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge, err)
	default:
		_ = c.Error(err)
		Abort(c, http.StatusBadGateway, CodeUpstream, errUpstream)
	}
}
