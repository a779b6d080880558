package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/kahu/internal/audit"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/PolarWolf314/kahu/internal/records"
	"github.com/PolarWolf314/kahu/internal/secrets"
	"github.com/PolarWolf314/kahu/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TrialOptions configures an anonymous share.
type TrialOptions struct {
	// Origin identifies the anonymous sender for daily limits, for example a
	// client address.
	Origin string

	Patterns []string
	BaseDir  string

	Passphrase   string
	MaxDownloads int
}

// TrialResult lists the shares created, one per file.
type TrialResult struct {
	Shares []ShareResult
}

// CreateTrialShare encrypts local files directly under the passphrase-derived
// key without any identity, one share per file. Limits apply per origin.
func (c *Client) CreateTrialShare(ctx context.Context, opts TrialOptions) (*TrialResult, error) {
	if opts.Origin == "" {
		return nil, fmt.Errorf("%w: trial origin", kerrors.ErrMissingConfig)
	}
	if opts.Passphrase == "" {
		return nil, kerrors.ErrEmptyPassphrase
	}
	maxDownloads := opts.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = c.limits.MaxDownloads
	}

	files, total, err := readFiles(opts.Patterns, opts.BaseDir)
	if err != nil {
		return nil, err
	}

	q := c.trialQuota(opts.Origin)
	if err := c.checkQuota(ctx, q, int64(len(files)), total); err != nil {
		return nil, err
	}

	hash, err := secrets.HashPassphrase(opts.Passphrase)
	if err != nil {
		return nil, err
	}

	expireAt := c.now().Add(c.limits.ShareTTL.Duration)
	created := make([]*ShareResult, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, f := range files {
		g.Go(func() error {
			env, err := secrets.EncryptForShare(f.data, f.name, opts.Passphrase)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", f.name, err)
				return nil
			}

			key := storage.ShareKey(env.EncryptedFilename)
			if err := c.objects.Put(ctx, key, env.Ciphertext); err != nil {
				errs[i] = fmt.Errorf("%s: %w", f.name, err)
				return nil
			}

			origin := opts.Origin
			share := &records.FileShare{
				ShareID:           uuid.NewString(),
				Origin:            &origin,
				EncryptedFilename: env.EncryptedFilename,
				IV:                env.IV,
				FilenameIV:        env.FilenameIV,
				PassphraseHash:    hash,
				FileSize:          int64(len(f.data)),
				MaxDownloads:      maxDownloads,
				ExpireAt:          expireAt,
			}
			if err := c.records.CreateShare(ctx, share); err != nil {
				if derr := c.objects.Delete(ctx, key); derr != nil {
					c.log.Warnf("Orphaned object %s: %v", key, derr)
				}
				errs[i] = fmt.Errorf("%s: %w", f.name, storageErr("save share record", err))
				return nil
			}

			created[i] = &ShareResult{
				ShareID:      share.ShareID,
				Name:         f.name,
				Size:         share.FileSize,
				MaxDownloads: maxDownloads,
				ExpireAt:     expireAt,
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &TrialResult{}
	for _, s := range created {
		if s == nil {
			continue
		}
		c.recordUsage(ctx, q, s.Size)
		result.Shares = append(result.Shares, *s)
		c.audit.Record(audit.Entry{
			Operation: audit.OpTrial,
			Origin:    opts.Origin,
			ShareID:   s.ShareID,
			Bytes:     s.Size,
		})
	}

	return result, errors.Join(errs...)
}
