package entry

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Form field names accepted by the upload endpoints.
const (
	FieldFile           = "file"
	FieldText           = "text"
	FieldFilename       = "filename"
	FieldNote           = "note"
	FieldExpirationDays = "expiration_days"
)

// ParseUploadForm reads a multipart upload request bounded by maxBytes and
// classifies each item as a FileUpload or PastedText.
func ParseUploadForm(c *gin.Context, maxBytes int64) ([]Upload, UploadOptions, error) {
	if maxBytes > 0 {
		if c.Request.ContentLength > maxBytes {
			return nil, UploadOptions{}, fmt.Errorf("%w: request exceeds %d bytes", apperr.ErrTooLarge, maxBytes)
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, UploadOptions{}, fmt.Errorf("%w: request exceeds %d bytes", apperr.ErrTooLarge, tooLarge.Limit)
		}
		return nil, UploadOptions{}, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}

	opts, err := OptionsFromForm(form)
	if err != nil {
		return nil, UploadOptions{}, err
	}
	return UploadsFromForm(form), opts, nil
}

// UploadsFromForm decides the variant of every upload in form. Empty file inputs are skipped.
func UploadsFromForm(form *multipart.Form) []Upload {
	var uploads []Upload
	for _, fh := range form.File[FieldFile] {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		header := fh
		uploads = append(uploads, FileUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		})
	}

	if text := firstValue(form, FieldText); strings.TrimSpace(text) != "" {
		uploads = append(uploads, PastedText{
			Filename: firstValue(form, FieldFilename),
			Text:     text,
		})
	}
	return uploads
}

// OptionsFromForm reads the note and expiration_days fields.
func OptionsFromForm(form *multipart.Form) (UploadOptions, error) {
	var opts UploadOptions

	if _, ok := form.Value[FieldNote]; ok {
		note := firstValue(form, FieldNote)
		opts.Note = &note
	}

	if raw := strings.TrimSpace(firstValue(form, FieldExpirationDays)); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return UploadOptions{}, ErrInvalidExpiration
		}
		opts.ExpirationDays = &days
	}
	return opts, nil
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
