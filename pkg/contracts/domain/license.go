// Package domain contains the license key types shared by every layer of the
// service.
package domain

// LicenseRequest is the input to key issuance.
type LicenseRequest struct {
	ProductID  string `json:"product_id" validate:"required,excludes=-"`
	MachineID  string `json:"machine_id" validate:"required"`
	PeriodDays int    `json:"period_days" validate:"gte=0"`
}

// LicenseData is the content carried by a license key. Field names follow
// the original wire contract, where the machine id is called cpu_id.
type LicenseData struct {
	ProductID  string `json:"product_id"`
	MachineID  string `json:"cpu_id"`
	PeriodDays int    `json:"license_period_days"`
}

// VerificationResult is the outcome of verifying a presented key. Data is
// only set when Valid is true.
type VerificationResult struct {
	Valid bool         `json:"isValid"`
	Data  *LicenseData `json:"license_data"`
}
