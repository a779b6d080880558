package secrets

import (
	"crypto/sha256"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDFIterations is the PBKDF2-SHA256 work factor for every derived key.
	KDFIterations = 200_000

	// SymmetricKeySize is the AES-256 key length in bytes.
	SymmetricKeySize = 32
)

// DeriveKeyWithSalt derives an AES-256 key from passphrase, salted with the
// account identifier. Only used to wrap and unwrap the private identity key,
// so the same passphrase on two accounts yields different keys.
func DeriveKeyWithSalt(passphrase, accountSalt string) ([]byte, error) {
	if passphrase == "" {
		return nil, kerrors.ErrEmptyPassphrase
	}
	return pbkdf2.Key([]byte(passphrase), []byte(accountSalt), KDFIterations, SymmetricKeySize, sha256.New), nil
}

// DeriveKeyFromPassphrase derives an AES-256 key from passphrase with an empty
// salt. Used for share content; the same passphrase on two shares derives the
// same key.
func DeriveKeyFromPassphrase(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, kerrors.ErrEmptyPassphrase
	}
	return pbkdf2.Key([]byte(passphrase), nil, KDFIterations, SymmetricKeySize, sha256.New), nil
}
