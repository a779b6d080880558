package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/kahu/internal/audit"
	"github.com/PolarWolf314/kahu/internal/cache"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/PolarWolf314/kahu/internal/records"
	"github.com/PolarWolf314/kahu/internal/secrets"
)

// IdentitySource names the tier an identity was resolved from.
type IdentitySource string

const (
	SourceSession   IdentitySource = "session"
	SourceCache     IdentitySource = "cache"
	SourceRemote    IdentitySource = "remote"
	SourceGenerated IdentitySource = "generated"
)

// IdentityResult contains the outcome of ResolveIdentity.
type IdentityResult struct {
	Account Account
	Source  IdentitySource
}

// ResolveIdentity unlocks the account's identity, trying the session, then
// the local cache, then the record store, and generating a new identity only
// when no store has one.
//
// Returns ErrWrongPassphrase if a stored identity exists but the passphrase
// does not open it. Returns ErrStorage if the record store cannot be read; a
// new identity is never generated in that case. An identity already unlocked
// in this session is returned without checking the passphrase again.
func (c *Client) ResolveIdentity(ctx context.Context, accountID, passphrase string) (*IdentityResult, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account.id", kerrors.ErrMissingConfig)
	}
	if passphrase == "" {
		return nil, kerrors.ErrEmptyPassphrase
	}

	if id, ok := c.session.Get(accountID); ok {
		c.log.Debugf("Identity for %s found in session", accountID)
		return &IdentityResult{Account: Account{ID: accountID, Identity: id}, Source: SourceSession}, nil
	}

	id, err := c.identityFromCache(accountID, passphrase)
	if err != nil {
		return nil, err
	}
	if id != nil {
		return c.resolved(accountID, id, SourceCache), nil
	}

	id, err = c.identityFromRemote(ctx, accountID, passphrase)
	if err != nil {
		return nil, err
	}
	if id != nil {
		return c.resolved(accountID, id, SourceRemote), nil
	}

	id, err = c.createIdentity(ctx, accountID, passphrase)
	if err != nil {
		return nil, err
	}
	return c.resolved(accountID, id, SourceGenerated), nil
}

func (c *Client) resolved(accountID string, id *secrets.Identity, source IdentitySource) *IdentityResult {
	c.session.Put(accountID, id)
	c.audit.Record(audit.Entry{
		Account:   accountID,
		Operation: audit.OpIdentity,
		Created:   source == SourceGenerated,
	})
	c.log.Infof("Identity for %s resolved from %s", accountID, source)
	return &IdentityResult{Account: Account{ID: accountID, Identity: id}, Source: source}
}

// identityFromCache returns nil without error on a miss or an unreadable entry.
func (c *Client) identityFromCache(accountID, passphrase string) (*secrets.Identity, error) {
	entry, err := c.cache.GetKeyPair(accountID)
	if errors.Is(err, cache.ErrMiss) {
		c.log.Debugf("No cached identity for %s", accountID)
		return nil, nil
	}
	if err != nil {
		c.log.Warnf("Ignoring unreadable cached identity: %v", err)
		return nil, nil
	}

	id, err := secrets.OpenIdentity(&secrets.WrappedPrivateKey{
		Ciphertext: entry.WrappedPrivateKey,
		IV:         entry.IV,
	}, entry.PublicKey, passphrase, accountID)
	if errors.Is(err, kerrors.ErrWrongPassphrase) {
		return nil, err
	}
	if err != nil {
		c.log.Warnf("Ignoring corrupt cached identity: %v", err)
		return nil, nil
	}
	return id, nil
}

func (c *Client) identityFromRemote(ctx context.Context, accountID, passphrase string) (*secrets.Identity, error) {
	kp, err := c.records.GetUserKeyPair(ctx, accountID)
	if errors.Is(err, records.ErrNotFound) {
		c.log.Debugf("No remote identity for %s", accountID)
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("read identity", err)
	}

	id, err := secrets.OpenIdentity(&secrets.WrappedPrivateKey{
		Ciphertext: kp.WrappedPrivateKey,
		IV:         kp.IV,
	}, kp.PublicKey, passphrase, accountID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutKeyPair(&cache.KeyPairEntry{
		AccountID:         accountID,
		PublicKey:         kp.PublicKey,
		WrappedPrivateKey: kp.WrappedPrivateKey,
		IV:                kp.IV,
	}); err != nil {
		c.log.Warnf("Failed to cache identity locally: %v", err)
	}
	return id, nil
}

func (c *Client) createIdentity(ctx context.Context, accountID, passphrase string) (*secrets.Identity, error) {
	c.log.Infof("Generating a new identity for %s", accountID)
	generated, err := c.generate()
	if err != nil {
		return nil, err
	}

	wrapped, err := secrets.WrapPrivateKey(generated.PrivateKey, passphrase, accountID)
	if err != nil {
		return nil, err
	}

	if err := c.records.SaveUserKeyPair(ctx, &records.UserKeyPair{
		AccountID:         accountID,
		PublicKey:         generated.PublicKeyB64,
		WrappedPrivateKey: wrapped.Ciphertext,
		IV:                wrapped.IV,
	}); err != nil {
		return nil, storageErr("save identity", err)
	}

	if err := c.cache.PutKeyPair(&cache.KeyPairEntry{
		AccountID:         accountID,
		PublicKey:         generated.PublicKeyB64,
		WrappedPrivateKey: wrapped.Ciphertext,
		IV:                wrapped.IV,
	}); err != nil {
		c.log.Warnf("Failed to cache identity locally: %v", err)
	}

	if err := c.records.MarkPassphraseSet(ctx, accountID); err != nil {
		c.log.Warnf("Failed to record passphrase setup: %v", err)
	}

	id := generated.Identity
	return &id, nil
}

// PassphraseSet reports whether the account has completed passphrase setup.
func (c *Client) PassphraseSet(ctx context.Context, accountID string) (bool, error) {
	set, err := c.records.PassphraseSet(ctx, accountID)
	if err != nil {
		return false, storageErr("read user", err)
	}
	return set, nil
}
