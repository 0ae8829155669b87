package entry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abduss/goshare/internal/entry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(f fixture, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	entry.RegisterRoutes(r.Group("/v1"), f.service, maxUpload)
	entry.RegisterPublicRoutes(r, f.service)
	return r
}

func multipartBody(t *testing.T, files map[string][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile(entry.FieldFile, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadHandlerCreatesFileAndTextEntries(t *testing.T) {
	f := newFixture(30)
	router := newRouter(f, 1<<20)

	body, ct := multipartBody(t,
		map[string][]byte{"photo.png": []byte("png")},
		map[string]string{entry.FieldText: "some text", entry.FieldExpirationDays: "3"},
	)
	req := httptest.NewRequest(http.MethodPost, "/v1/entries", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Entries []entry.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "photo.png", resp.Entries[0].Filename)
	assert.Equal(t, "paste.txt", resp.Entries[1].Filename)
	assert.Equal(t, 2, f.blobs.Len())
}

func TestUploadHandlerRejectsEmptyAndOversized(t *testing.T) {
	f := newFixture(30)
	router := newRouter(f, 1<<20)

	body, ct := multipartBody(t, nil, map[string]string{entry.FieldNote: "nothing attached"})
	req := httptest.NewRequest(http.MethodPost, "/v1/entries", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	router = newRouter(f, 64)
	body, ct = multipartBody(t, map[string][]byte{"big.bin": bytes.Repeat([]byte("x"), 1024)}, nil)
	req = httptest.NewRequest(http.MethodPost, "/v1/entries", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestDownloadHandlerStreamsBlob(t *testing.T) {
	f := newFixture(30)
	router := newRouter(f, 1<<20)

	e, err := f.service.Upload(context.Background(), entry.FromBytes("notes.txt", "text/plain", []byte("hello world")), entry.UploadOptions{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/e/"+e.ID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=notes.txt`)
	assert.Equal(t, 1, f.events.Count(e.ID))
}

func TestDeleteHandler(t *testing.T) {
	f := newFixture(30)
	router := newRouter(f, 1<<20)

	e, err := f.service.Upload(context.Background(), entry.FromBytes("a", "", []byte("a")), entry.UploadOptions{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/entries/"+e.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/e/"+e.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditHandlerRejectsNegativeExpiration(t *testing.T) {
	f := newFixture(30)
	router := newRouter(f, 1<<20)

	e, err := f.service.Upload(context.Background(), entry.FromBytes("a", "", []byte("a")), entry.UploadOptions{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/v1/entries/"+e.ID, bytes.NewBufferString(`{"expiration_days":-2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
