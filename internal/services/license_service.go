package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	apierrors "licensekeys/internal/errors"
	"licensekeys/internal/infrastructure"
	"licensekeys/internal/license"
	"licensekeys/pkg/contracts/domain"
)

// KeyManager is the subset of license.Manager the service depends on.
type KeyManager interface {
	IssueRequest(req domain.LicenseRequest) (string, error)
	Verify(key string) (domain.VerificationResult, error)
	Extract(key string) (*domain.LicenseData, bool)
	CanIssue() bool
	CanValidate() bool
}

var _ KeyManager = (*license.Manager)(nil)

// LicenseService provides business logic for license key operations
type LicenseService interface {
	// Issue mints a key for the request.
	Issue(ctx context.Context, req domain.LicenseRequest) (string, error)
	// Verify checks a key and returns its data when it is valid.
	Verify(ctx context.Context, key string) (domain.VerificationResult, error)
	// Extract decodes a key without checking its signature.
	Extract(ctx context.Context, key string) (*domain.LicenseData, error)
	// Capabilities reports which key halves are configured.
	Capabilities() KeyCapabilities
}

// KeyCapabilities describes which operations the configured keys allow.
type KeyCapabilities struct {
	CanIssue    bool `json:"can_issue"`
	CanValidate bool `json:"can_validate"`
}

// licenseService implements LicenseService
type licenseService struct {
	manager KeyManager
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewLicenseService creates a new license service. A nil tracer or metrics
// set is replaced with a no-op implementation.
func NewLicenseService(manager KeyManager, tracer trace.Tracer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) LicenseService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	if metrics == nil {
		// noop instruments never fail to register
		metrics, _ = infrastructure.CreateBusinessMetrics(metricnoop.NewMeterProvider().Meter(infrastructure.InstrumentationName))
	}
	return &licenseService{
		manager: manager,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "license")),
	}
}

// Issue mints a license key
func (s *licenseService) Issue(ctx context.Context, req domain.LicenseRequest) (string, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "license.issue",
		trace.WithAttributes(
			attribute.String("license.product_id", req.ProductID),
			attribute.Int("license.period_days", req.PeriodDays),
		),
	)
	defer span.End()

	key, err := s.manager.IssueRequest(req)
	s.metrics.LicenseIssueDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		appErr := classify(err, "failed to issue license key")
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Message)
		s.metrics.LicenseIssueFailures.Add(ctx, 1,
			metric.WithAttributes(attribute.String("error.type", string(appErr.Type))))

		level := slog.LevelWarn
		if appErr.Type != apierrors.ErrTypeValidation {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "license issuance failed",
			slog.String("product_id", req.ProductID),
			slog.String("error", err.Error()),
		)
		return "", appErr
	}

	s.metrics.LicenseIssuedTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("product_id", req.ProductID)))

	s.logger.InfoContext(ctx, "license key issued",
		slog.String("product_id", req.ProductID),
		slog.Int("period_days", req.PeriodDays),
		slog.Duration("duration", time.Since(start)),
	)

	return key, nil
}

// Verify checks key and returns its data when it is valid
func (s *licenseService) Verify(ctx context.Context, key string) (domain.VerificationResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "license.verify",
		trace.WithAttributes(attribute.Int("license.key_length", len(key))),
	)
	defer span.End()

	result, err := s.manager.Verify(key)
	s.metrics.LicenseValidationDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		appErr := classify(err, "failed to verify license key")
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Message)
		s.metrics.LicenseValidationsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("result", "error")))
		s.logger.ErrorContext(ctx, "license verification failed",
			slog.String("error", err.Error()),
		)
		return domain.VerificationResult{}, appErr
	}

	outcome := "invalid"
	if result.Valid {
		outcome = "valid"
	}
	span.SetAttributes(attribute.Bool("license.valid", result.Valid))
	s.metrics.LicenseValidationsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", outcome)))

	attrs := []any{slog.Bool("valid", result.Valid)}
	if result.Data != nil {
		attrs = append(attrs, slog.String("product_id", result.Data.ProductID))
	}
	s.logger.DebugContext(ctx, "license key verified", attrs...)

	return result, nil
}

// Extract decodes key without checking its signature
func (s *licenseService) Extract(ctx context.Context, key string) (*domain.LicenseData, error) {
	ctx, span := s.tracer.Start(ctx, "license.extract")
	defer span.End()

	data, ok := s.manager.Extract(key)
	if !ok {
		s.metrics.LicenseExtractionsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("result", "malformed")))
		span.SetStatus(codes.Error, "malformed license key")
		return nil, apierrors.NewLicenseError("license key is malformed", apierrors.ErrMalformedLicenseKey)
	}

	s.metrics.LicenseExtractionsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", "extracted")))
	s.logger.DebugContext(ctx, "license key extracted without verification",
		slog.String("product_id", data.ProductID),
	)

	return data, nil
}

// Capabilities reports which key halves are configured
func (s *licenseService) Capabilities() KeyCapabilities {
	return KeyCapabilities{
		CanIssue:    s.manager.CanIssue(),
		CanValidate: s.manager.CanValidate(),
	}
}

// classify maps core license errors onto the application error taxonomy.
func classify(err error, message string) *apierrors.AppError {
	switch {
	case license.IsConfigError(err):
		return apierrors.NewConfigError(configMessage(err), err)
	case errors.Is(err, license.ErrInvalidRequest), errors.Is(err, license.ErrMalformedToken):
		return apierrors.NewAppValidationError(err.Error(), err)
	default:
		return apierrors.NewInternalError(message, err)
	}
}

// configMessage names the missing key half without leaking wrapped detail.
func configMessage(err error) string {
	switch {
	case errors.Is(err, license.ErrPrivateKeyNotConfigured):
		return license.ErrPrivateKeyNotConfigured.Error()
	case errors.Is(err, license.ErrPublicKeyNotConfigured):
		return license.ErrPublicKeyNotConfigured.Error()
	default:
		return license.ErrInvalidKeyMaterial.Error()
	}
}
