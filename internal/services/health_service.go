package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"licensekeys/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	info      contracts.VersionInfo
	license   LicenseService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// Readiness states
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// VersionResponse is the body of GET /api/version
type VersionResponse struct {
	contracts.VersionInfo
	Uptime    float64 `json:"uptime"`
	StartTime string  `json:"start_time"`
}

// NewHealthService creates a new health service
func NewHealthService(info contracts.VersionInfo, license LicenseService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		info:      info,
		license:   license,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.info.Version,
	}

	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// ReadinessCheck reports which key halves are loaded. The service is ready
// when it can both issue and validate, degraded when it can do one of them
// and not ready otherwise.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	caps := hs.license.Capabilities()

	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.info.Version,
		Services: map[string]interface{}{
			"issuer":   keyHealth(caps.CanIssue, "private key"),
			"verifier": keyHealth(caps.CanValidate, "public key"),
		},
	}

	switch {
	case caps.CanIssue && caps.CanValidate:
	case caps.CanIssue || caps.CanValidate:
		status.Status = StatusDegraded
	default:
		status.Status = StatusNotReady
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "service not fully ready",
			slog.String("status", status.Status),
			slog.Bool("can_issue", caps.CanIssue),
			slog.Bool("can_validate", caps.CanValidate))
	}

	return status
}

func keyHealth(configured bool, name string) ServiceHealth {
	if !configured {
		return ServiceHealth{Status: StatusNotReady, Message: name + " not configured"}
	}
	return ServiceHealth{Status: StatusReady, Message: name + " loaded"}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.info.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns build and runtime version information
func (hs *HealthService) Version() VersionResponse {
	return VersionResponse{
		VersionInfo: hs.info,
		Uptime:      time.Since(hs.startTime).Seconds(),
		StartTime:   hs.startTime.Format(time.RFC3339),
	}
}
