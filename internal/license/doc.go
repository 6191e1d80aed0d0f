// Package license issues and verifies signed license keys bound to a machine
// identifier and a license period.
//
// # Key Format
//
// A license key is four fields joined with '-':
//
//	<product_id>-<token>-<checksum>-<signature>
//
//	- token:     machine_id + ":" + period_days, base64 encoded with an
//	             alphabet that never emits '-' (see Encode)
//	- checksum:  lowercase hex MD5 of the token
//	- signature: lowercase hex signature over token+checksum, made from the
//	             SHA-256 digest of that payload
//
// # Issuance
//
//	keys, err := license.LoadKeyPair(os.Getenv("PRIVATE_KEY"), os.Getenv("PUBLIC_KEY"))
//	manager := license.NewManager(keys)
//	key, err := manager.Issue("XYZ123", "cpu-abc-123", 365)
//
// # Verification
//
// Validate answers whether a key is authentic. A malformed key, a checksum
// mismatch and a bad signature all report false with a nil error; an error is
// returned only when the verification key is not configured.
//
//	ok, err := manager.Validate(key)
//
// Extract decodes the fields of a structurally well-formed key. It performs
// no signature check, so its success says nothing about authenticity. Call
// Validate first, or use Verify which does both.
//
// # Expiry
//
// The period is carried in the key but never compared with the current time.
// Callers that need expiry enforcement must apply it themselves.
//
// # Key Material
//
// Keys are PEM text. Configuration systems that cannot carry multi-line
// values may pass literal "\n" sequences; they are expanded into line breaks
// before parsing. RSA, ECDSA and Ed25519 keys are supported.
package license
