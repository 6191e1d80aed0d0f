package license

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// escapedNewline is the two-character sequence configuration systems use to
// carry PEM line breaks in a single-line value.
const escapedNewline = `\n`

// Supported key algorithms for GenerateKeyPair.
const (
	AlgorithmRSA     = "rsa"
	AlgorithmECDSA   = "ecdsa"
	AlgorithmEd25519 = "ed25519"
)

const rsaKeyBits = 2048

// KeyPair holds the signing and verification keys. Either half may be nil;
// operations that need a missing half fail with a configuration error. A
// KeyPair is never mutated after it is built and may be shared freely.
type KeyPair struct {
	Private crypto.Signer
	Public  crypto.PublicKey
}

// ExpandNewlines replaces every literal `\n` sequence with a line break.
func ExpandNewlines(s string) string {
	return strings.ReplaceAll(s, escapedNewline, "\n")
}

// EscapeNewlines is the inverse of ExpandNewlines.
func EscapeNewlines(b []byte) string {
	return strings.ReplaceAll(strings.TrimRight(string(b), "\n"), "\n", escapedNewline)
}

// LoadKeyPair parses PEM key material. An empty string leaves that half of
// the pair unconfigured.
func LoadKeyPair(privatePEM, publicPEM string) (*KeyPair, error) {
	kp := &KeyPair{}

	if strings.TrimSpace(privatePEM) != "" {
		priv, err := ParsePrivateKey(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		kp.Private = priv
	}

	if strings.TrimSpace(publicPEM) != "" {
		pub, err := ParsePublicKey(publicPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
		kp.Public = pub
	}

	return kp, nil
}

// ParsePrivateKey parses a PEM private key in PKCS#8, PKCS#1, SEC 1 or
// OpenSSH form.
func ParsePrivateKey(text string) (crypto.Signer, error) {
	data := []byte(ExpandNewlines(text))
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKeyMaterial)
	}

	var (
		key any
		err error
	)
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "OPENSSH PRIVATE KEY":
		key, err = ssh.ParseRawPrivateKey(data)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidKeyMaterial, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	// ssh returns ed25519 keys by pointer
	if k, ok := key.(*ed25519.PrivateKey); ok {
		key = *k
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported private key type %T", ErrInvalidKeyMaterial, key)
	}
	if err := checkKeyType(signer.Public()); err != nil {
		return nil, err
	}
	return signer, nil
}

// ParsePublicKey parses a PEM public key in PKIX or PKCS#1 form, or takes the
// key from a PEM certificate.
func ParsePublicKey(text string) (crypto.PublicKey, error) {
	block, _ := pem.Decode([]byte(ExpandNewlines(text)))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKeyMaterial)
	}

	var (
		key any
		err error
	)
	switch block.Type {
	case "PUBLIC KEY":
		key, err = x509.ParsePKIXPublicKey(block.Bytes)
	case "RSA PUBLIC KEY":
		key, err = x509.ParsePKCS1PublicKey(block.Bytes)
	case "CERTIFICATE":
		var cert *x509.Certificate
		cert, err = x509.ParseCertificate(block.Bytes)
		if err == nil {
			key = cert.PublicKey
		}
	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidKeyMaterial, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	if err := checkKeyType(key); err != nil {
		return nil, err
	}
	return key, nil
}

func checkKeyType(pub crypto.PublicKey) error {
	switch pub.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return nil
	default:
		return fmt.Errorf("%w: unsupported key type %T", ErrInvalidKeyMaterial, pub)
	}
}

// GenerateKeyPair creates a new key pair and returns it PEM encoded, the
// private key as PKCS#8 and the public key as PKIX.
func GenerateKeyPair(algorithm string) (privatePEM, publicPEM []byte, err error) {
	var signer crypto.Signer
	switch strings.ToLower(algorithm) {
	case AlgorithmRSA, "":
		signer, err = rsa.GenerateKey(rand.Reader, rsaKeyBits)
	case AlgorithmECDSA:
		signer, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case AlgorithmEd25519:
		_, signer, err = ed25519.GenerateKey(rand.Reader)
	default:
		return nil, nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate %s key: %w", algorithm, err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(signer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(signer.Public())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privatePEM, publicPEM, nil
}

// Matches reports whether the private and public halves belong together by
// signing and verifying a probe payload.
func (kp *KeyPair) Matches() bool {
	if kp == nil || kp.Private == nil || kp.Public == nil {
		return false
	}
	const probe = "key-pair-probe"
	sig, err := NewSigner(kp.Private).Sign(probe)
	if err != nil {
		return false
	}
	ok, err := NewVerifier(kp.Public).Verify(probe, sig)
	return err == nil && ok
}
