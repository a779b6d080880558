// Package workflows provides high-level orchestration for kahu commands.
//
// Workflows coordinate the secrets, storage, records, cache and audit
// packages to implement complete user-facing features. Each workflow is a
// method on Client and handles a single command's business logic,
// independent of CLI concerns like flag parsing, spinners, and output
// formatting.
//
// # Dependencies
//
// A Client is built once by the composition root from explicit Deps: the
// object store, record store, local cache, session tier, limits, logger and
// audit log. Nothing is read from globals. Key material is never held by the
// Client; every operation that encrypts or decrypts takes an Account
// carrying the unlocked identity.
//
// # Available Workflows
//
//   - ResolveIdentity: unlocks or creates the account's keypair
//   - Upload, Download, ListFiles, DeleteFile: owner files
//   - CreateShare, VerifyAccess, ConsumeDownload, FetchShare: passphrase shares
//   - ListShares, RevokeShare: share management
//   - CreateTrialShare: anonymous shares limited per origin
//   - Sweep: removes expired files and shares
//   - Usage: today's quota usage
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching:
//
//	_, err := client.CreateShare(ctx, opts)
//	if errors.Is(err, kerrors.ErrAlreadyShared) {
//	    // Point the user at the existing share
//	}
//
// # Context Usage
//
// All workflow methods that touch storage accept a context.Context as their
// first parameter.
package workflows
