// Package api contains the HTTP contracts of the license service.
// Version v1 represents the current stable API version.
package api

import (
	"licensekeys/pkg/contracts/domain"
)

// GenerateLicenseQuery holds the query parameters of a generate request.
// The period stays a string until the handler parses it so that a
// non-numeric value can be reported as such.
type GenerateLicenseQuery struct {
	ProductID  string `json:"product_id" validate:"required,excludes=-"`
	MachineID  string `json:"cpu_id" validate:"required"`
	PeriodDays string `json:"license_period_days" validate:"required,numeric"`
}

// GenerateLicenseResponse is returned by a successful generate request.
type GenerateLicenseResponse struct {
	LicenseKey string `json:"license_key"`
}

// LicenseKeyRequest carries a license key in a request body.
type LicenseKeyRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
}

// ValidateLicenseResponse is returned by a validate request.
type ValidateLicenseResponse = domain.VerificationResult

// ExtractLicenseResponse is returned by an extract request. Verified is
// always false: extraction never checks the signature.
type ExtractLicenseResponse struct {
	LicenseData *domain.LicenseData `json:"license_data"`
	Verified    bool                `json:"verified"`
}
