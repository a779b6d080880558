// Package errors provides typed error values for kahu.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Config errors: missing or malformed settings (ErrMissingConfig)
//   - Identity errors: keypair state (ErrIdentityNotFound, ErrWrongPassphrase)
//   - Crypto errors: encryption/decryption failures (ErrDecryptFailed)
//   - Share errors: protocol preconditions (ErrAlreadyShared, ErrLimitReached)
//   - Rate limit errors: daily caps, carried by *RateLimitError
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("unwrapping identity for %s: %w", accountID, errors.ErrWrongPassphrase)
//
// Handle errors in the CLI layer:
//
//	_, err := client.ConsumeDownload(ctx, shareID, passphrase)
//	if errors.Is(err, kerrors.ErrLimitReached) {
//	    // Show user-friendly message
//	}
//
// Rate limit failures also carry the offending dimension:
//
//	var rl *kerrors.RateLimitError
//	if errors.As(err, &rl) && rl.Dimension == kerrors.DimensionSize {
//	    // Explain the byte cap
//	}
package errors
