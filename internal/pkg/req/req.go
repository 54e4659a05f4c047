/*
Package req binds request bodies for the HTTP handlers.

JSON bodies are decoded into the handler's input struct; multipart bodies are size-capped
before parsing so an oversized photo upload fails fast with ErrRequestEntityTooLarge.
*/
package req

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"aqimonitor/internal/pkg/errs"
)

const (
	// MaxJSONBodySize caps JSON request bodies.
	MaxJSONBodySize int64 = 1 << 20 // 1 MB

	// MaxFormMemory is the in-memory budget for multipart parsing; larger parts spill to temp files.
	MaxFormMemory int64 = 8 << 20 // 8 MB

	// MaxUploadSize caps a whole multipart request, file included.
	MaxUploadSize int64 = 5 << 20 // 5 MB
)

// BindJSON decodes the JSON object in the request body into dst.
// Unknown fields are ignored; a body that is not a single JSON object is rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}

// SetupMultipart caps the body at limit bytes and parses the multipart form.
func SetupMultipart(w http.ResponseWriter, r *http.Request, limit int64) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
