package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "licensekeys/internal/errors"
	"licensekeys/internal/infrastructure"
	"licensekeys/internal/services"
	api "licensekeys/pkg/contracts/api/v1"
	"licensekeys/pkg/contracts/domain"
)

// RequestValidator checks request bodies and bound request structs.
type RequestValidator interface {
	ValidateRequest(next http.Handler) http.Handler
	ValidateStruct(v interface{}) error
}

// LicenseHandler handles license key issuance and verification requests
type LicenseHandler struct {
	service      services.LicenseService
	validator    RequestValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(service services.LicenseService, validator RequestValidator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "license")),
	}
}

// Routes returns a chi router for the /api/license endpoints
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validator.ValidateRequest)

	r.Get("/generate", h.Generate)
	r.Post("/validate", h.Validate)
	r.Post("/extract", h.Extract)

	return r
}

// RegisterLegacyRoutes mounts the top-level endpoints older clients call.
func (h *LicenseHandler) RegisterLegacyRoutes(r chi.Router) {
	r.Get("/generate-license", h.Generate)
	r.With(h.validator.ValidateRequest).Post("/validate-license", h.Validate)
}

// Generate handles GET /api/license/generate and GET /generate-license
func (h *LicenseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "license_handler.generate")
	defer span.End()
	start := time.Now()

	q := r.URL.Query()
	query := api.GenerateLicenseQuery{
		ProductID:  q.Get("product_id"),
		MachineID:  q.Get("cpu_id"),
		PeriodDays: q.Get("license_period_days"),
	}
	if query.MachineID == "" {
		query.MachineID = q.Get("machine_id")
	}

	if err := h.validator.ValidateStruct(query); err != nil {
		h.fail(w, r.WithContext(ctx), span, err)
		return
	}

	period, err := strconv.Atoi(query.PeriodDays)
	if err != nil || period < 0 {
		h.fail(w, r.WithContext(ctx), span,
			apierrors.ErrValidation("license_period_days", "license_period_days must be a non-negative integer"))
		return
	}

	span.SetAttributes(
		attribute.String("license.product_id", query.ProductID),
		attribute.Int("license.period_days", period),
	)

	key, err := h.service.Issue(ctx, domain.LicenseRequest{
		ProductID:  query.ProductID,
		MachineID:  query.MachineID,
		PeriodDays: period,
	})
	if err != nil {
		h.fail(w, r.WithContext(ctx), span, err)
		return
	}

	h.logger.InfoContext(ctx, "license key generated",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("product_id", query.ProductID),
		slog.Int("period_days", period),
		slog.Duration("latency", time.Since(start)),
	)

	render.JSON(w, r, api.GenerateLicenseResponse{LicenseKey: key})
}

// Validate handles POST /api/license/validate and POST /validate-license
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "license_handler.validate")
	defer span.End()

	req, err := h.bindKeyRequest(r)
	if err != nil {
		h.fail(w, r.WithContext(ctx), span, err)
		return
	}

	result, err := h.service.Verify(ctx, req.LicenseKey)
	if err != nil {
		h.fail(w, r.WithContext(ctx), span, err)
		return
	}

	span.SetAttributes(attribute.Bool("license.valid", result.Valid))
	h.logger.InfoContext(ctx, "license key checked",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Bool("valid", result.Valid),
	)

	render.JSON(w, r, api.ValidateLicenseResponse(result))
}

// Extract handles POST /api/license/extract. The signature is not checked.
func (h *LicenseHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "license_handler.extract")
	defer span.End()

	req, err := h.bindKeyRequest(r)
	if err != nil {
		h.fail(w, r.WithContext(ctx), span, err)
		return
	}

	data, err := h.service.Extract(ctx, req.LicenseKey)
	if err != nil {
		h.fail(w, r.WithContext(ctx), span, err)
		return
	}

	render.JSON(w, r, api.ExtractLicenseResponse{LicenseData: data, Verified: false})
}

func (h *LicenseHandler) bindKeyRequest(r *http.Request) (api.LicenseKeyRequest, error) {
	var req api.LicenseKeyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		return req, apierrors.InvalidRequestWithError(err)
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (h *LicenseHandler) startSpan(r *http.Request, name string) (context.Context, trace.Span) {
	return otel.Tracer("license-handler").Start(r.Context(), name,
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("request_id", middleware.GetReqID(r.Context())),
			attribute.String("component", "license_handler"),
		),
	)
}

func (h *LicenseHandler) fail(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	infrastructure.AddSpanEvent(r.Context(), "license.request.failed",
		attribute.String("error", err.Error()),
	)
	h.errorHandler.HandleError(w, r, err)
}
