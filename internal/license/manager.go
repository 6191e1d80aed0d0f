package license

import (
	"fmt"
	"strings"

	"licensekeys/pkg/contracts/domain"
)

// Manager issues and verifies license keys with a fixed key pair. It holds no
// mutable state and is safe for concurrent use.
type Manager struct {
	signer   *Signer
	verifier *Verifier
}

// NewManager creates a Manager. A nil key pair, or a pair with a missing
// half, is accepted; the operations needing that half report a configuration
// error when called.
func NewManager(keys *KeyPair) *Manager {
	m := &Manager{
		signer:   NewSigner(nil),
		verifier: NewVerifier(nil),
	}
	if keys != nil {
		m.signer = NewSigner(keys.Private)
		m.verifier = NewVerifier(keys.Public)
	}
	return m
}

// CanIssue reports whether a signing key is configured.
func (m *Manager) CanIssue() bool {
	return m.signer.key != nil
}

// CanValidate reports whether a verification key is configured.
func (m *Manager) CanValidate() bool {
	return m.verifier.key != nil
}

// Issue mints a license key. The product id format is not checked; a product
// id containing '-' yields a key that will not validate.
func (m *Manager) Issue(productID, machineID string, periodDays int) (string, error) {
	if strings.TrimSpace(productID) == "" {
		return "", fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}
	if machineID == "" {
		return "", fmt.Errorf("%w: machine id is required", ErrInvalidRequest)
	}
	if periodDays < 0 {
		return "", fmt.Errorf("%w: period must not be negative", ErrInvalidRequest)
	}

	f := keyFields{
		ProductID: productID,
		Token:     Encode(machineID, periodDays),
	}
	f.Checksum = Checksum(f.Token)

	sig, err := m.signer.Sign(f.signedPayload())
	if err != nil {
		return "", fmt.Errorf("failed to issue license key: %w", err)
	}
	f.Signature = sig

	return f.String(), nil
}

// IssueRequest is Issue for a domain request.
func (m *Manager) IssueRequest(req domain.LicenseRequest) (string, error) {
	return m.Issue(req.ProductID, req.MachineID, req.PeriodDays)
}

// Validate reports whether key is well formed, uncorrupted and signed by the
// configured key pair. The only error is ErrPublicKeyNotConfigured; every
// problem with the key itself is reported as false.
func (m *Manager) Validate(key string) (bool, error) {
	if !m.CanValidate() {
		return false, ErrPublicKeyNotConfigured
	}

	f, ok := splitKey(key)
	if !ok {
		return false, nil
	}

	if !checksumMatches(f.Token, f.Checksum) {
		return false, nil
	}

	return m.verifier.Verify(f.signedPayload(), f.Signature)
}

// Extract decodes the fields of a structurally well-formed key.
//
// Extract does not check the signature. A forged key with a valid layout is
// extracted just like a genuine one, so success must never be taken as proof
// of authenticity; use Validate or Verify for that.
func (m *Manager) Extract(key string) (*domain.LicenseData, bool) {
	f, ok := splitKey(key)
	if !ok {
		return nil, false
	}

	machineID, periodDays, err := Decode(f.Token)
	if err != nil {
		return nil, false
	}

	return &domain.LicenseData{
		ProductID:  f.ProductID,
		MachineID:  machineID,
		PeriodDays: periodDays,
	}, true
}

// Verify validates key and, when it is valid, extracts its data. Data is nil
// for invalid keys.
func (m *Manager) Verify(key string) (domain.VerificationResult, error) {
	valid, err := m.Validate(key)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	if !valid {
		return domain.VerificationResult{Valid: false}, nil
	}

	data, ok := m.Extract(key)
	if !ok {
		// authentic but undecodable, e.g. issued by another tool
		return domain.VerificationResult{Valid: true}, nil
	}
	return domain.VerificationResult{Valid: true, Data: data}, nil
}
