package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondMapsFamilies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", fmt.Errorf("%w: bad part", ErrInvalidArgument), http.StatusBadRequest, CodeInvalidRequest},
		{"not found", fmt.Errorf("entry %w", ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"too large", fmt.Errorf("%w: 200 MB", ErrTooLarge), http.StatusRequestEntityTooLarge, CodeFileTooLarge},
		{"upstream", errors.New("dial tcp: connection refused"), http.StatusBadGateway, CodeUpstream},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			Respond(c, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body Body
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestRespondHidesUpstreamDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Respond(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
	assert.Len(t, c.Errors, 2)
}
