package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PolarWolf314/kahu/internal/audit"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/PolarWolf314/kahu/internal/records"
	"github.com/PolarWolf314/kahu/internal/secrets"
	"github.com/PolarWolf314/kahu/internal/storage"
	"github.com/google/uuid"
)

// ShareOptions configures the share workflow.
type ShareOptions struct {
	Account Account
	FileID  string

	// Passphrase both gates and encrypts the share. It is never stored.
	Passphrase string

	// MaxDownloads defaults to the configured limit when zero.
	MaxDownloads int
}

// ShareResult describes a created share.
type ShareResult struct {
	ShareID      string
	FileID       string
	Name         string
	Size         int64
	MaxDownloads int
	ExpireAt     time.Time
}

// ShareInfo describes one share for listing.
type ShareInfo struct {
	ShareID       string
	FileID        string
	Name          string // source file name, when the source still exists
	Size          int64
	DownloadCount int
	MaxDownloads  int
	ExpireAt      time.Time
	Expired       bool
}

// CreateShare re-encrypts an owned file under a key derived from the share
// passphrase and stores the copy with a bcrypt gate hash.
//
// Returns ErrFileNotFound for files the account does not own, before any
// share of the file is looked at. Returns ErrAlreadyShared if the file has an
// unexpired share; no object is read or written in that case. An expired share of the same file is removed
// first. Returns a *RateLimitError when the daily share cap is reached.
func (c *Client) CreateShare(ctx context.Context, opts ShareOptions) (*ShareResult, error) {
	if err := opts.Account.validate(); err != nil {
		return nil, err
	}
	if opts.Passphrase == "" {
		return nil, kerrors.ErrEmptyPassphrase
	}
	maxDownloads := opts.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = c.limits.MaxDownloads
	}

	f, err := c.liveFile(ctx, opts.Account.ID, opts.FileID)
	if err != nil {
		return nil, err
	}

	existing, err := c.records.ShareForFile(ctx, f.ID)
	switch {
	case err == nil && !existing.Expired(c.now()):
		return nil, fmt.Errorf("%w: %s", kerrors.ErrAlreadyShared, existing.ShareID)
	case err == nil:
		c.log.Infof("Replacing expired share %s", existing.ShareID)
		if err := c.removeShare(ctx, existing); err != nil {
			return nil, err
		}
	case !errors.Is(err, records.ErrNotFound):
		return nil, storageErr("read share record", err)
	}

	q := c.shareQuota(opts.Account.ID)
	if err := c.checkQuota(ctx, q, 1, 0); err != nil {
		return nil, err
	}

	plain, err := c.decryptFile(ctx, opts.Account, f)
	if err != nil {
		return nil, err
	}

	hash, err := secrets.HashPassphrase(opts.Passphrase)
	if err != nil {
		return nil, err
	}

	env, err := secrets.EncryptForShare(plain.Data, plain.Name, opts.Passphrase)
	if err != nil {
		return nil, err
	}

	key := storage.ShareKey(env.EncryptedFilename)
	if err := c.objects.Put(ctx, key, env.Ciphertext); err != nil {
		return nil, err
	}

	ownerID, sourceID := opts.Account.ID, f.ID
	share := &records.FileShare{
		ShareID:           uuid.NewString(),
		OwnerID:           &ownerID,
		SourceFileID:      &sourceID,
		EncryptedFilename: env.EncryptedFilename,
		IV:                env.IV,
		FilenameIV:        env.FilenameIV,
		PassphraseHash:    hash,
		FileSize:          f.Size,
		MaxDownloads:      maxDownloads,
		ExpireAt:          c.now().Add(c.limits.ShareTTL.Duration),
	}
	if err := c.records.CreateShare(ctx, share); err != nil {
		if derr := c.objects.Delete(ctx, key); derr != nil {
			c.log.Warnf("Orphaned object %s: %v", key, derr)
		}
		if errors.Is(err, records.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrAlreadyShared, f.ID)
		}
		return nil, storageErr("save share record", err)
	}

	c.recordUsage(ctx, q, f.Size)
	c.audit.Record(audit.Entry{
		Account:   opts.Account.ID,
		Operation: audit.OpShare,
		FileIDs:   []string{f.ID},
		ShareID:   share.ShareID,
		Bytes:     f.Size,
	})

	return &ShareResult{
		ShareID:      share.ShareID,
		FileID:       f.ID,
		Name:         plain.Name,
		Size:         f.Size,
		MaxDownloads: maxDownloads,
		ExpireAt:     share.ExpireAt,
	}, nil
}

func (c *Client) getShare(ctx context.Context, shareID string) (*records.FileShare, error) {
	share, err := c.records.GetShare(ctx, shareID)
	if errors.Is(err, records.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrShareNotFound, shareID)
	}
	if err != nil {
		return nil, storageErr("read share record", err)
	}
	return share, nil
}

// VerifyAccess checks passphrase against the share's gate hash. It derives no
// key; a false result is not an error.
func (c *Client) VerifyAccess(ctx context.Context, shareID, passphrase string) (bool, error) {
	share, err := c.getShare(ctx, shareID)
	if err != nil {
		return false, err
	}
	return secrets.VerifyPassphrase(passphrase, share.PassphraseHash)
}

// ConsumeDownload decrypts a share with the passphrase-derived key and counts
// the download before returning the bytes. Call VerifyAccess first.
//
// Returns ErrLimitReached when no downloads remain, checked before expiry, so
// an exhausted share never attempts decryption. Returns ErrShareExpired past
// expiry. Returns ErrDecryptFailed if passphrase does not derive the key, in
// which case the count is unchanged.
func (c *Client) ConsumeDownload(ctx context.Context, shareID, passphrase string) (*DownloadResult, error) {
	share, err := c.getShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.Exhausted() {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrLimitReached, shareID)
	}
	if share.Expired(c.now()) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrShareExpired, shareID)
	}

	ciphertext, err := c.objects.Get(ctx, storage.ShareKey(share.EncryptedFilename))
	if err != nil {
		return nil, err
	}

	plain, err := secrets.DecryptShare(&secrets.ShareEnvelope{
		Ciphertext:        ciphertext,
		IV:                share.IV,
		EncryptedFilename: share.EncryptedFilename,
		FilenameIV:        share.FilenameIV,
	}, passphrase)
	if err != nil {
		return nil, err
	}

	ok, err := c.records.IncrementDownloadCount(ctx, shareID)
	if err != nil {
		return nil, storageErr("count download", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrLimitReached, shareID)
	}

	entry := audit.Entry{
		Operation: audit.OpShareDownload,
		ShareID:   shareID,
		Bytes:     int64(len(plain.Data)),
		Downloads: share.DownloadCount + 1,
	}
	if share.OwnerID != nil {
		entry.Account = *share.OwnerID
	}
	if share.Origin != nil {
		entry.Origin = *share.Origin
	}
	c.audit.Record(entry)

	return &DownloadResult{ID: shareID, Name: plain.Name, Data: plain.Data}, nil
}

// FetchShare runs the recipient flow: the gate check, then ConsumeDownload.
// Returns ErrAccessDenied if the gate rejects passphrase.
func (c *Client) FetchShare(ctx context.Context, shareID, passphrase string) (*DownloadResult, error) {
	granted, err := c.VerifyAccess(ctx, shareID, passphrase)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrAccessDenied, shareID)
	}
	return c.ConsumeDownload(ctx, shareID, passphrase)
}

// ListShares returns the account's shares. Names are resolved from the source
// files when account carries an identity.
func (c *Client) ListShares(ctx context.Context, account Account) ([]ShareInfo, error) {
	shares, err := c.records.ListShares(ctx, account.ID)
	if err != nil {
		return nil, storageErr("list shares", err)
	}

	now := c.now()
	infos := make([]ShareInfo, 0, len(shares))
	for i := range shares {
		s := &shares[i]
		info := ShareInfo{
			ShareID:       s.ShareID,
			Size:          s.FileSize,
			DownloadCount: s.DownloadCount,
			MaxDownloads:  s.MaxDownloads,
			ExpireAt:      s.ExpireAt,
			Expired:       s.Expired(now),
		}
		if s.SourceFileID != nil {
			info.FileID = *s.SourceFileID
			info.Name = c.sourceName(ctx, account, info.FileID)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *Client) sourceName(ctx context.Context, account Account, fileID string) string {
	if account.Identity == nil || account.Identity.PrivateKey == nil {
		return ""
	}
	f, err := c.records.GetFile(ctx, fileID)
	if err != nil {
		return ""
	}
	name, err := secrets.DecryptFilename(envelopeOf(f, nil), account.Identity.PrivateKey)
	if err != nil {
		c.log.Warnf("Could not decrypt name of %s: %v", fileID, err)
		return ""
	}
	return name
}

// RevokeShare deletes an owned share and its ciphertext. The share ID is
// never reused.
func (c *Client) RevokeShare(ctx context.Context, accountID, shareID string) error {
	share, err := c.getShare(ctx, shareID)
	if err != nil {
		return err
	}
	if share.OwnerID == nil || *share.OwnerID != accountID {
		return fmt.Errorf("%w: %s", kerrors.ErrShareNotFound, shareID)
	}

	if err := c.removeShare(ctx, share); err != nil {
		return err
	}

	c.audit.Record(audit.Entry{
		Account:   accountID,
		Operation: audit.OpRevoke,
		ShareID:   shareID,
	})
	c.log.Infof("Revoked share %s", shareID)
	return nil
}
