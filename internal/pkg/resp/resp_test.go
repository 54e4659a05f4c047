package resp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard)
	m.Run()
}

func TestRespondErrorUsesStatusAndFlatBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)

	RespondError(rec, req, errs.NewError(errs.ErrInvalidCredentials))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":2004,"error":"Invalid credentials"}`, rec.Body.String())
}

func TestRespondErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRespondCreated(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondCreated(rec, httptest.NewRequest(http.MethodPost, "/register", nil), map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"ok"}`, rec.Body.String())
}
