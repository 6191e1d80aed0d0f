package license

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Signer signs license payloads with a private key.
type Signer struct {
	key crypto.Signer
}

// NewSigner returns a Signer for key. A nil key yields a Signer whose Sign
// always fails with ErrPrivateKeyNotConfigured.
func NewSigner(key crypto.Signer) *Signer {
	return &Signer{key: key}
}

// Sign hashes payload with SHA-256 and signs the digest, returning the
// signature as lowercase hex. RSA keys use PKCS#1 v1.5, ECDSA keys produce an
// ASN.1 signature and Ed25519 keys sign the digest bytes.
func (s *Signer) Sign(payload string) (string, error) {
	if s == nil || s.key == nil {
		return "", ErrPrivateKeyNotConfigured
	}

	digest := sha256.Sum256([]byte(payload))

	var opts crypto.SignerOpts = crypto.SHA256
	if _, ok := s.key.(ed25519.PrivateKey); ok {
		opts = crypto.Hash(0)
	}

	sig, err := s.key.Sign(rand.Reader, digest[:], opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign payload: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Verifier checks license signatures with a public key.
type Verifier struct {
	key crypto.PublicKey
}

// NewVerifier returns a Verifier for key. A nil key yields a Verifier whose
// Verify always fails with ErrPublicKeyNotConfigured.
func NewVerifier(key crypto.PublicKey) *Verifier {
	return &Verifier{key: key}
}

// Verify reports whether signatureHex is a valid signature of payload. A
// signature that does not check out, including one that is not lower-case
// hex, is reported as false with a nil error.
func (v *Verifier) Verify(payload, signatureHex string) (bool, error) {
	if v == nil || v.key == nil {
		return false, ErrPublicKeyNotConfigured
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil || hex.EncodeToString(sig) != signatureHex {
		return false, nil
	}

	digest := sha256.Sum256([]byte(payload))

	switch pub := v.key.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil, nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(pub, digest[:], sig), nil
	case ed25519.PublicKey:
		return ed25519.Verify(pub, digest[:], sig), nil
	default:
		return false, fmt.Errorf("%w: unsupported key type %T", ErrInvalidKeyMaterial, v.key)
	}
}
