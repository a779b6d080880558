package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/kahu/internal/audit"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/PolarWolf314/kahu/internal/records"
	"github.com/PolarWolf314/kahu/internal/secrets"
	"github.com/PolarWolf314/kahu/internal/storage"
	"github.com/PolarWolf314/kahu/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// UploadOptions configures the upload workflow.
type UploadOptions struct {
	Account Account

	// Patterns are paths, directories or globs of files to upload.
	Patterns []string

	// BaseDir resolves relative patterns. Defaults to the working directory.
	BaseDir string
}

// UploadedFile describes one file that was stored.
type UploadedFile struct {
	ID       string
	Name     string
	Path     string
	Size     int64
	ExpireAt time.Time
}

// UploadResult contains the outcome of an upload.
type UploadResult struct {
	Files []UploadedFile
}

type localFile struct {
	path string
	name string
	data []byte
}

// Upload encrypts each matched file under a fresh content key wrapped for the
// account's public key and stores it. Files in the batch are processed
// concurrently.
//
// The whole batch is checked against the daily quota before anything is
// stored. Returns a *RateLimitError (ErrRateLimited) naming the exceeded
// dimension, in which case no counter changes. Returns ErrNoFilesFound if no
// files match. When some files fail, the result lists those that were stored
// and the error joins the failures.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if err := opts.Account.validate(); err != nil {
		return nil, err
	}

	files, total, err := readFiles(opts.Patterns, opts.BaseDir)
	if err != nil {
		return nil, err
	}

	q := c.uploadQuota(opts.Account.ID)
	if err := c.checkQuota(ctx, q, int64(len(files)), total); err != nil {
		return nil, err
	}

	expireAt := c.now().Add(c.limits.FileTTL.Duration)
	stored := make([]*UploadedFile, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, f := range files {
		g.Go(func() error {
			uploaded, err := c.uploadOne(ctx, opts.Account, f, expireAt)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", f.name, err)
				return nil
			}
			stored[i] = uploaded
			return nil
		})
	}
	_ = g.Wait()

	result := &UploadResult{}
	var ids []string
	for _, u := range stored {
		if u == nil {
			continue
		}
		c.recordUsage(ctx, q, u.Size)
		result.Files = append(result.Files, *u)
		ids = append(ids, u.ID)
	}

	if len(ids) > 0 {
		var bytes int64
		for _, f := range result.Files {
			bytes += f.Size
		}
		c.audit.Record(audit.Entry{
			Account:   opts.Account.ID,
			Operation: audit.OpUpload,
			FileIDs:   ids,
			Bytes:     bytes,
		})
	}

	return result, errors.Join(errs...)
}

func (c *Client) uploadOne(ctx context.Context, account Account, f localFile, expireAt time.Time) (*UploadedFile, error) {
	env, err := secrets.EncryptForUpload(f.data, f.name, account.Identity.PublicKey)
	if err != nil {
		return nil, err
	}

	key := storage.UploadKey(env.EncryptedFilename)
	if err := c.objects.Put(ctx, key, env.Ciphertext); err != nil {
		return nil, err
	}
	c.log.Debugf("Stored %d bytes at %s", len(env.Ciphertext), key)

	rec := &records.File{
		ID:                uuid.NewString(),
		OwnerID:           account.ID,
		EncryptedFilename: env.EncryptedFilename,
		FilenameIV:        env.FilenameIV,
		WrappedKey:        env.WrappedKey,
		ContentIV:         env.ContentIV,
		Size:              int64(len(f.data)),
		ExpireAt:          expireAt,
	}
	if err := c.records.CreateFile(ctx, rec); err != nil {
		// Without a record nothing can find the object again.
		if derr := c.objects.Delete(ctx, key); derr != nil {
			c.log.Warnf("Orphaned object %s: %v", key, derr)
		}
		return nil, storageErr("save file record", err)
	}

	return &UploadedFile{
		ID:       rec.ID,
		Name:     f.name,
		Path:     f.path,
		Size:     rec.Size,
		ExpireAt: expireAt,
	}, nil
}

// readFiles resolves patterns and reads every match into memory.
func readFiles(patterns []string, baseDir string) ([]localFile, int64, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, 0, err
		}
		baseDir = wd
	}

	paths, err := utils.ResolveFiles(patterns, baseDir)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", kerrors.ErrNoFilesFound, err)
	}
	if len(paths) == 0 {
		return nil, 0, kerrors.ErrNoFilesFound
	}

	files := make([]localFile, 0, len(paths))
	var total int64
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, localFile{path: p, name: filepath.Base(p), data: data})
		total += int64(len(data))
	}
	return files, total, nil
}
