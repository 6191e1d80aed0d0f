// Package services implements the business logic layer between the HTTP
// handlers and the license core.
//
// LicenseService wraps license.Manager with tracing, metrics and structured
// logging, and translates core errors into the application error taxonomy of
// internal/errors:
//
//	license.ErrPrivateKeyNotConfigured -> AppError{Type: CONFIG}
//	license.ErrPublicKeyNotConfigured  -> AppError{Type: CONFIG}
//	license.ErrInvalidRequest          -> AppError{Type: VALIDATION}
//	malformed key on extract           -> AppError{Type: LICENSE}
//
// An invalid key is not an error: Verify returns a result with Valid false.
//
// HealthService reports liveness and readiness. Readiness depends on which
// halves of the key pair are configured.
package services
