package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
)

const (
	// IdentityKeyBits is the RSA modulus size of every identity keypair.
	IdentityKeyBits = 3072

	// WrapIVSize is the AES-GCM nonce length used when wrapping a private key.
	WrapIVSize = 16
)

// Identity is a user's long-lived RSA-OAEP keypair. The private half only
// ever lives in memory.
type Identity struct {
	PublicKey  *rsa.PublicKey
	PrivateKey *rsa.PrivateKey

	// PublicKeyB64 is the base64 SPKI export of PublicKey.
	PublicKeyB64 string
}

// WrappedPrivateKey is the at-rest form of a private key: PKCS8 bytes sealed
// under a key derived from (passphrase, account ID).
type WrappedPrivateKey struct {
	Ciphertext string `json:"ciphertext"` // base64
	IV         string `json:"iv"`         // base64, 16 bytes
}

// GeneratedIdentity is the result of GenerateIdentity, including both exports.
type GeneratedIdentity struct {
	Identity
	PrivateKeyB64 string
}

// GenerateIdentity creates a fresh 3072-bit RSA keypair with exponent 65537
// and exports both halves (SPKI public, PKCS8 private) as base64.
func GenerateIdentity() (*GeneratedIdentity, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, IdentityKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGeneration, err)
	}

	pubB64, err := ExportPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	privB64, err := ExportPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &GeneratedIdentity{
		Identity: Identity{
			PublicKey:    &privateKey.PublicKey,
			PrivateKey:   privateKey,
			PublicKeyB64: pubB64,
		},
		PrivateKeyB64: privB64,
	}, nil
}

// ExportPublicKey returns the base64 SPKI encoding of key.
func ExportPublicKey(key *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return BytesToBase64(der), nil
}

// ExportPrivateKey returns the base64 PKCS8 encoding of key.
func ExportPrivateKey(key *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	return BytesToBase64(der), nil
}

// ImportPublicKey parses a base64 SPKI RSA public key.
func ImportPublicKey(b64 string) (*rsa.PublicKey, error) {
	der, err := Base64ToBytes(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", kerrors.ErrInvalidPublicKey)
	}
	return rsaPub, nil
}

// importPrivateKey parses PKCS8 DER bytes as an RSA private key.
func importPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", kerrors.ErrInvalidPrivateKey)
	}
	return rsaKey, nil
}

// WrapPrivateKey seals the PKCS8 export of key under a key derived from
// passphrase and accountSalt, with a fresh 16-byte IV.
func WrapPrivateKey(key *rsa.PrivateKey, passphrase, accountSalt string) (*WrappedPrivateKey, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer zero(der)

	wrapKey, err := DeriveKeyWithSalt(passphrase, accountSalt)
	if err != nil {
		return nil, err
	}
	defer zero(wrapKey)

	iv, err := randomBytes(WrapIVSize)
	if err != nil {
		return nil, err
	}

	ciphertext, err := seal(wrapKey, iv, der)
	if err != nil {
		return nil, err
	}

	return &WrappedPrivateKey{
		Ciphertext: BytesToBase64(ciphertext),
		IV:         BytesToBase64(iv),
	}, nil
}

// UnwrapPrivateKey reverses WrapPrivateKey. An authentication failure is
// reported as ErrWrongPassphrase.
func UnwrapPrivateKey(wrapped *WrappedPrivateKey, passphrase, accountSalt string) (*rsa.PrivateKey, error) {
	ciphertext, err := Base64ToBytes(wrapped.Ciphertext)
	if err != nil {
		return nil, err
	}
	iv, err := Base64ToBytes(wrapped.IV)
	if err != nil {
		return nil, err
	}

	wrapKey, err := DeriveKeyWithSalt(passphrase, accountSalt)
	if err != nil {
		return nil, err
	}
	defer zero(wrapKey)

	der, err := open(wrapKey, iv, ciphertext)
	if err != nil {
		return nil, kerrors.ErrWrongPassphrase
	}
	defer zero(der)

	return importPrivateKey(der)
}

// OpenIdentity unwraps a stored identity and imports its public half.
func OpenIdentity(wrapped *WrappedPrivateKey, publicKeyB64, passphrase, accountSalt string) (*Identity, error) {
	privateKey, err := UnwrapPrivateKey(wrapped, passphrase, accountSalt)
	if err != nil {
		return nil, err
	}
	publicKey, err := ImportPublicKey(publicKeyB64)
	if err != nil {
		return nil, err
	}
	if !publicKey.Equal(&privateKey.PublicKey) {
		return nil, fmt.Errorf("%w: public key does not match private key", kerrors.ErrInvalidPublicKey)
	}
	return &Identity{
		PublicKey:    publicKey,
		PrivateKey:   privateKey,
		PublicKeyB64: publicKeyB64,
	}, nil
}
