package secrets

import (
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// GateCost is the bcrypt work factor of the passphrase access gate.
const GateCost = 12

// HashPassphrase returns the bcrypt access-gate hash of passphrase. The hash
// only gates access; it is never an input to key derivation.
func HashPassphrase(passphrase string) (string, error) {
	if passphrase == "" {
		return "", kerrors.ErrEmptyPassphrase
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), GateCost)
	if err != nil {
		return "", fmt.Errorf("hashing passphrase: %w", err)
	}
	return string(hash), nil
}

// VerifyPassphrase reports whether passphrase matches hash. A malformed hash
// is an error, a mismatch is not.
func VerifyPassphrase(passphrase, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verifying passphrase: %w", err)
}
