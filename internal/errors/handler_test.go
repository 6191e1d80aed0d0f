package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleError(t *testing.T) {
	keyErr := fmt.Errorf("failed to issue license key: %w", fmt.Errorf("private key not configured"))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"validation api error", ErrValidation("product_id", "product_id is required"), http.StatusBadRequest, TypeValidation},
		{"invalid request", InvalidRequestWithError(assert.AnError), http.StatusBadRequest, TypeValidation},
		{"malformed key api error", ErrMalformedLicenseKey, http.StatusUnprocessableEntity, TypeLicenseMalformed},
		{"config app error", NewConfigError("private key not configured", keyErr), http.StatusInternalServerError, TypeKeyNotConfigured},
		{"validation app error", NewAppValidationError("machine id is required", nil), http.StatusBadRequest, TypeValidation},
		{"license app error", NewLicenseError("license key is malformed", nil), http.StatusUnprocessableEntity, TypeLicenseMalformed},
		{"license app error with cause", NewLicenseError("license key is malformed", ErrMalformedLicenseKey), http.StatusUnprocessableEntity, TypeLicenseMalformed},
		{"internal app error", NewInternalError("boom", nil), http.StatusInternalServerError, TypeInternal},
		{"wrapped app error", fmt.Errorf("handler: %w", NewConfigError("public key not configured", nil)), http.StatusInternalServerError, TypeKeyNotConfigured},
		{"plain error", assert.AnError, http.StatusInternalServerError, TypeInternal},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/license/generate", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/license/generate", body["instance"])
			assert.Equal(t, "req-1", body["trace_id"])
		})
	}
}

func TestHandleError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestHandleError_ConfigDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodPost, "/validate-license", nil),
		NewConfigError("public key not configured", nil))

	body := decodeProblem(t, rec)
	assert.Equal(t, "public key not configured", body["detail"])
	assert.Equal(t, "CONFIG", body["error_type"])
}

func TestHandleError_Stack(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), assert.AnError)
	assert.Contains(t, decodeProblem(t, rec), "stack")

	rec = httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), ErrMalformedLicenseKey)
	assert.NotContains(t, decodeProblem(t, rec), "stack")
}

func TestHandleError_MalformedLicenseCause(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/license/extract", nil),
		NewLicenseError("license key is malformed", ErrMalformedLicenseKey))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "LICENSE", body["error_type"])
	assert.Equal(t, "MALFORMED_LICENSE_KEY", body["error_code"])
	assert.Equal(t, "license key is malformed", body["detail"])
}

func TestAPIErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		NewValidationErrors([]ValidationError{{Field: "cpu_id", Message: "cpu_id is required"}}))

	body := decodeProblem(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	details := body["details"].(map[string]any)
	errs := details["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "cpu_id", errs[0].(map[string]any)["field"])
}

func TestHandlePanic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/validate-license", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}
