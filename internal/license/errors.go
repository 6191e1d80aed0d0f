package license

import "errors"

// Configuration errors. These mean the system is broken, not that a key is
// invalid, and are never retried.
var (
	ErrPrivateKeyNotConfigured = errors.New("private key not configured")
	ErrPublicKeyNotConfigured  = errors.New("public key not configured")
	ErrInvalidKeyMaterial      = errors.New("invalid key material")
)

// Input errors.
var (
	ErrMalformedToken = errors.New("malformed license token")
	ErrInvalidRequest = errors.New("invalid license request")
)

// IsConfigError reports whether err is caused by missing or unusable key
// configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrPrivateKeyNotConfigured) ||
		errors.Is(err, ErrPublicKeyNotConfigured) ||
		errors.Is(err, ErrInvalidKeyMaterial)
}
