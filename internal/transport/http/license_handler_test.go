package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "licensekeys/internal/errors"
	"licensekeys/internal/license"
	"licensekeys/internal/middleware"
	"licensekeys/internal/services"
	"licensekeys/pkg/contracts/domain"
)

// MockLicenseService implements the LicenseService interface for testing
type MockLicenseService struct {
	mock.Mock
}

func (m *MockLicenseService) Issue(ctx context.Context, req domain.LicenseRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLicenseService) Verify(ctx context.Context, key string) (domain.VerificationResult, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.VerificationResult), args.Error(1)
}

func (m *MockLicenseService) Extract(ctx context.Context, key string) (*domain.LicenseData, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LicenseData), args.Error(1)
}

func (m *MockLicenseService) Capabilities() services.KeyCapabilities {
	return m.Called().Get(0).(services.KeyCapabilities)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestRouter(svc services.LicenseService) chi.Router {
	logger := discardLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewLicenseHandler(svc, middleware.NewValidationMiddleware(logger, errorHandler), errorHandler, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/license", handler.Routes())
	handler.RegisterLegacyRoutes(r)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestLicenseHandler_Generate(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setupMock  func(*MockLicenseService)
		wantStatus int
		wantKey    string
		wantType   string
	}{
		{
			name: "success",
			path: "/api/license/generate?product_id=XYZ123&cpu_id=cpu-abc-123&license_period_days=365",
			setupMock: func(m *MockLicenseService) {
				m.On("Issue", mock.Anything, domain.LicenseRequest{
					ProductID: "XYZ123", MachineID: "cpu-abc-123", PeriodDays: 365,
				}).Return("XYZ123-tok-sum-sig", nil)
			},
			wantStatus: http.StatusOK,
			wantKey:    "XYZ123-tok-sum-sig",
		},
		{
			name: "legacy route",
			path: "/generate-license?product_id=XYZ123&cpu_id=cpu&license_period_days=0",
			setupMock: func(m *MockLicenseService) {
				m.On("Issue", mock.Anything, domain.LicenseRequest{
					ProductID: "XYZ123", MachineID: "cpu", PeriodDays: 0,
				}).Return("legacy-key", nil)
			},
			wantStatus: http.StatusOK,
			wantKey:    "legacy-key",
		},
		{
			name: "machine_id alias",
			path: "/api/license/generate?product_id=XYZ123&machine_id=m-1&license_period_days=30",
			setupMock: func(m *MockLicenseService) {
				m.On("Issue", mock.Anything, domain.LicenseRequest{
					ProductID: "XYZ123", MachineID: "m-1", PeriodDays: 30,
				}).Return("alias-key", nil)
			},
			wantStatus: http.StatusOK,
			wantKey:    "alias-key",
		},
		{
			name:       "missing product id",
			path:       "/api/license/generate?cpu_id=cpu&license_period_days=30",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "missing period",
			path:       "/api/license/generate?product_id=XYZ&cpu_id=cpu",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "non numeric period",
			path:       "/api/license/generate?product_id=XYZ&cpu_id=cpu&license_period_days=year",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "fractional period",
			path:       "/api/license/generate?product_id=XYZ&cpu_id=cpu&license_period_days=1.5",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "negative period",
			path:       "/api/license/generate?product_id=XYZ&cpu_id=cpu&license_period_days=-1",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "dash in product id",
			path:       "/api/license/generate?product_id=XYZ-1&cpu_id=cpu&license_period_days=1",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name: "private key not configured",
			path: "/api/license/generate?product_id=XYZ&cpu_id=cpu&license_period_days=1",
			setupMock: func(m *MockLicenseService) {
				m.On("Issue", mock.Anything, mock.Anything).
					Return("", apierrors.NewConfigError("private key is not configured", license.ErrPrivateKeyNotConfigured))
			},
			wantStatus: http.StatusInternalServerError,
			wantType:   apierrors.TypeKeyNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockLicenseService{}
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantKey != "" {
				assert.Equal(t, tt.wantKey, body["license_key"])
			}
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
				assert.NotEmpty(t, body["trace_id"])
			}
			if tt.setupMock == nil {
				svc.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLicenseHandler_Validate(t *testing.T) {
	data := &domain.LicenseData{ProductID: "XYZ123", MachineID: "cpu-abc-123", PeriodDays: 365}

	tests := []struct {
		name       string
		path       string
		body       string
		setupMock  func(*MockLicenseService)
		wantStatus int
		wantValid  bool
		wantData   bool
	}{
		{
			name: "valid key",
			path: "/api/license/validate",
			body: `{"license_key":"good"}`,
			setupMock: func(m *MockLicenseService) {
				m.On("Verify", mock.Anything, "good").Return(domain.VerificationResult{Valid: true, Data: data}, nil)
			},
			wantStatus: http.StatusOK,
			wantValid:  true,
			wantData:   true,
		},
		{
			name: "invalid key on legacy route",
			path: "/validate-license",
			body: `{"license_key":"bad"}`,
			setupMock: func(m *MockLicenseService) {
				m.On("Verify", mock.Anything, "bad").Return(domain.VerificationResult{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key",
			path:       "/api/license/validate",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			path:       "/validate-license",
			body:       `{"license_key":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "public key not configured",
			path: "/api/license/validate",
			body: `{"license_key":"any"}`,
			setupMock: func(m *MockLicenseService) {
				m.On("Verify", mock.Anything, "any").
					Return(domain.VerificationResult{}, apierrors.NewConfigError("public key is not configured", license.ErrPublicKeyNotConfigured))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockLicenseService{}
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantValid, body["isValid"])
				if tt.wantData {
					ld, ok := body["license_data"].(map[string]interface{})
					require.True(t, ok)
					assert.Equal(t, "XYZ123", ld["product_id"])
					assert.Equal(t, "cpu-abc-123", ld["cpu_id"])
					assert.EqualValues(t, 365, ld["license_period_days"])
				} else {
					assert.Nil(t, body["license_data"])
				}
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLicenseHandler_Extract(t *testing.T) {
	t.Run("extracts unverified data", func(t *testing.T) {
		svc := &MockLicenseService{}
		svc.On("Extract", mock.Anything, "k").
			Return(&domain.LicenseData{ProductID: "P", MachineID: "M", PeriodDays: 7}, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/license/extract", strings.NewReader(`{"license_key":"k"}`)))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["verified"])
		ld := body["license_data"].(map[string]interface{})
		assert.Equal(t, "M", ld["cpu_id"])
	})

	t.Run("malformed key", func(t *testing.T) {
		svc := &MockLicenseService{}
		svc.On("Extract", mock.Anything, "junk").
			Return(nil, apierrors.NewLicenseError("license key is malformed", apierrors.ErrMalformedLicenseKey))

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/license/extract", strings.NewReader(`{"license_key":"junk"}`)))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, apierrors.TypeLicenseMalformed, body["type"])
		assert.Equal(t, "MALFORMED_LICENSE_KEY", body["error_code"])
	})
}

func TestLicenseHandler_RoundTrip(t *testing.T) {
	priv, pub, err := license.GenerateKeyPair(license.AlgorithmEd25519)
	require.NoError(t, err)
	keys, err := license.LoadKeyPair(string(priv), string(pub))
	require.NoError(t, err)

	svc := services.NewLicenseService(license.NewManager(keys), nil, nil, discardLogger())
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/generate-license?product_id=XYZ123&cpu_id=cpu-abc-123&license_period_days=365", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	key, _ := decodeBody(t, rec)["license_key"].(string)
	require.True(t, strings.HasPrefix(key, "XYZ123-"))

	payload, err := json.Marshal(map[string]string{"license_key": key})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate-license", strings.NewReader(string(payload))))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isValid"])
	ld := body["license_data"].(map[string]interface{})
	assert.Equal(t, "XYZ123", ld["product_id"])
	assert.Equal(t, "cpu-abc-123", ld["cpu_id"])
	assert.EqualValues(t, 365, ld["license_period_days"])
}
