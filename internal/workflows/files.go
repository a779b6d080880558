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
)

// DownloadResult is decrypted content and its original name.
type DownloadResult struct {
	ID   string
	Name string
	Data []byte
}

// FileInfo describes one stored file for listing.
type FileInfo struct {
	ID       string
	Name     string // empty if the name could not be decrypted
	Size     int64
	ExpireAt time.Time
	Expired  bool
	ShareID  string // active or expired share created from this file, if any
}

func envelopeOf(f *records.File, ciphertext []byte) *secrets.FileEnvelope {
	return &secrets.FileEnvelope{
		Ciphertext:        ciphertext,
		ContentIV:         f.ContentIV,
		WrappedKey:        f.WrappedKey,
		EncryptedFilename: f.EncryptedFilename,
		FilenameIV:        f.FilenameIV,
	}
}

// ownedFile loads fileID and hides files owned by other accounts.
func (c *Client) ownedFile(ctx context.Context, accountID, fileID string) (*records.File, error) {
	f, err := c.records.GetFile(ctx, fileID)
	if errors.Is(err, records.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, fileID)
	}
	if err != nil {
		return nil, storageErr("read file record", err)
	}
	if f.OwnerID != accountID {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, fileID)
	}
	return f, nil
}

// liveFile loads an owned file and rejects it once expired.
func (c *Client) liveFile(ctx context.Context, accountID, fileID string) (*records.File, error) {
	f, err := c.ownedFile(ctx, accountID, fileID)
	if err != nil {
		return nil, err
	}
	if c.now().After(f.ExpireAt) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileExpired, fileID)
	}
	return f, nil
}

// decryptFile fetches a file's ciphertext and opens it with the account's key.
func (c *Client) decryptFile(ctx context.Context, account Account, f *records.File) (*secrets.DecryptedFile, error) {
	ciphertext, err := c.objects.Get(ctx, storage.UploadKey(f.EncryptedFilename))
	if err != nil {
		return nil, err
	}
	return secrets.DecryptForDownload(envelopeOf(f, ciphertext), account.Identity.PrivateKey)
}

// Download fetches an owned file and decrypts it with the account's private key.
//
// Returns ErrFileNotFound if the file does not exist or belongs to another
// account. Returns ErrFileExpired past its expiry. Returns ErrKeyUnwrapFailed
// or ErrDecryptFailed if the ciphertext does not open.
func (c *Client) Download(ctx context.Context, account Account, fileID string) (*DownloadResult, error) {
	if err := account.validate(); err != nil {
		return nil, err
	}

	f, err := c.liveFile(ctx, account.ID, fileID)
	if err != nil {
		return nil, err
	}
	plain, err := c.decryptFile(ctx, account, f)
	if err != nil {
		return nil, err
	}

	c.audit.Record(audit.Entry{
		Account:   account.ID,
		Operation: audit.OpDownload,
		FileIDs:   []string{f.ID},
		Bytes:     int64(len(plain.Data)),
	})
	return &DownloadResult{ID: f.ID, Name: plain.Name, Data: plain.Data}, nil
}

// ListFiles returns the account's files with their names decrypted.
func (c *Client) ListFiles(ctx context.Context, account Account) ([]FileInfo, error) {
	if err := account.validate(); err != nil {
		return nil, err
	}

	files, err := c.records.ListFiles(ctx, account.ID)
	if err != nil {
		return nil, storageErr("list files", err)
	}
	shares, err := c.records.ListShares(ctx, account.ID)
	if err != nil {
		return nil, storageErr("list shares", err)
	}
	shareByFile := make(map[string]string, len(shares))
	for _, s := range shares {
		if s.SourceFileID != nil {
			shareByFile[*s.SourceFileID] = s.ShareID
		}
	}

	now := c.now()
	infos := make([]FileInfo, 0, len(files))
	for i := range files {
		f := &files[i]
		name, err := secrets.DecryptFilename(envelopeOf(f, nil), account.Identity.PrivateKey)
		if err != nil {
			c.log.Warnf("Could not decrypt name of %s: %v", f.ID, err)
		}
		infos = append(infos, FileInfo{
			ID:       f.ID,
			Name:     name,
			Size:     f.Size,
			ExpireAt: f.ExpireAt,
			Expired:  now.After(f.ExpireAt),
			ShareID:  shareByFile[f.ID],
		})
	}
	return infos, nil
}

// DeleteFile removes an owned file and any share created from it. Objects are
// deleted before records so a failure leaves a record to retry from.
func (c *Client) DeleteFile(ctx context.Context, accountID, fileID string) error {
	f, err := c.ownedFile(ctx, accountID, fileID)
	if err != nil {
		return err
	}

	share, err := c.records.ShareForFile(ctx, f.ID)
	switch {
	case err == nil:
		if err := c.removeShare(ctx, share); err != nil {
			return err
		}
	case !errors.Is(err, records.ErrNotFound):
		return storageErr("read share record", err)
	}

	if err := c.removeFile(ctx, f); err != nil {
		return err
	}

	c.audit.Record(audit.Entry{
		Account:   accountID,
		Operation: audit.OpDelete,
		FileIDs:   []string{f.ID},
	})
	c.log.Infof("Deleted file %s", f.ID)
	return nil
}

func (c *Client) removeFile(ctx context.Context, f *records.File) error {
	if err := c.objects.Delete(ctx, storage.UploadKey(f.EncryptedFilename)); err != nil {
		return err
	}
	if err := c.records.DeleteFile(ctx, f.ID); err != nil {
		return storageErr("delete file record", err)
	}
	return nil
}

func (c *Client) removeShare(ctx context.Context, s *records.FileShare) error {
	if err := c.objects.Delete(ctx, storage.ShareKey(s.EncryptedFilename)); err != nil {
		return err
	}
	if err := c.records.DeleteShare(ctx, s.ShareID); err != nil {
		return storageErr("delete share record", err)
	}
	return nil
}
