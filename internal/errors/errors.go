package errors

import (
	"errors"
	"fmt"
)

// Configuration errors are fatal and never retried.
var (
	// ErrMissingConfig indicates a required configuration value is absent.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrInvalidConfig indicates the configuration file is malformed.
	ErrInvalidConfig = errors.New("configuration is invalid")
)

// Identity errors indicate issues with the user's long-lived keypair.
var (
	// ErrIdentityNotFound indicates no wrapped identity exists in the queried store.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrWrongPassphrase indicates a wrapped private key could not be opened
	// with the supplied passphrase. Distinct from ErrIdentityNotFound.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrKeyGeneration indicates the entropy source failed while generating keys.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrInvalidPublicKey indicates a public key is malformed or not RSA.
	ErrInvalidPublicKey = errors.New("invalid or unsupported public key")

	// ErrInvalidPrivateKey indicates the private key is malformed or unsupported.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")
)

// Cryptographic errors indicate failures during encryption or decryption operations.
var (
	// ErrEmptyPassphrase indicates a key derivation was attempted without a passphrase.
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")

	// ErrEncryptFailed indicates content or filename encryption failed.
	ErrEncryptFailed = errors.New("failed to encrypt")

	// ErrDecryptFailed indicates an authentication tag mismatch or wrong key.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrKeyUnwrapFailed indicates a wrapped content key could not be opened.
	ErrKeyUnwrapFailed = errors.New("failed to unwrap content key")

	// ErrInvalidKeyLength indicates the symmetric key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid symmetric key length")

	// ErrInvalidEncoding indicates a base64 field could not be decoded.
	ErrInvalidEncoding = errors.New("invalid base64 encoding")
)

// Share errors are precondition failures of the share protocol.
var (
	// ErrAlreadyShared indicates the source file already has an active share.
	ErrAlreadyShared = errors.New("file already shared")

	// ErrShareNotFound indicates no share exists for the identifier.
	ErrShareNotFound = errors.New("share not found")

	// ErrLimitReached indicates the share reached its maximum download count.
	ErrLimitReached = errors.New("download limit reached")

	// ErrShareExpired indicates the share is past its expiry time.
	ErrShareExpired = errors.New("share expired")

	// ErrAccessDenied indicates the passphrase gate rejected the candidate.
	ErrAccessDenied = errors.New("access denied")
)

// File errors indicate issues with owner files.
var (
	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileExpired indicates the file is past its expiry time.
	ErrFileExpired = errors.New("file expired")

	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")
)

// Collaborator errors.
var (
	// ErrStorage indicates an object storage or record store call did not complete.
	ErrStorage = errors.New("storage operation did not complete")

	// ErrRateLimited indicates a daily upload or share cap was hit.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Rate limit dimensions.
const (
	DimensionCount = "count"
	DimensionSize  = "size"
)

// RateLimitError carries the dimension of a daily cap that was exceeded.
type RateLimitError struct {
	Dimension string
	Limit     int64
	Current   int64
}

func (e *RateLimitError) Error() string {
	if e.Dimension == DimensionSize {
		return fmt.Sprintf("rate limit exceeded: %d of %d bytes used today", e.Current, e.Limit)
	}
	return fmt.Sprintf("rate limit exceeded: %d of %d files today", e.Current, e.Limit)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
