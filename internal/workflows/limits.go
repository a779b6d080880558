package workflows

import (
	"context"
	"time"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/PolarWolf314/kahu/internal/records"
)

// quota is a daily cap on one subject's records of one kind. A zero
// maxBytes disables the size dimension.
type quota struct {
	subject  string
	kind     string
	maxCount int64
	maxBytes int64
}

func (c *Client) uploadQuota(accountID string) quota {
	return quota{accountID, records.KindUpload, c.limits.MaxFilesPerDay, c.limits.MaxBytesPerDay}
}

func (c *Client) shareQuota(accountID string) quota {
	return quota{accountID, records.KindShare, c.limits.MaxSharesPerDay, 0}
}

func (c *Client) trialQuota(origin string) quota {
	return quota{origin, records.KindTrial, c.limits.TrialMaxFilesPerDay, c.limits.TrialMaxBytesPerDay}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// checkQuota rejects adding count items of size bytes when either the local
// counter or the remote aggregate for today would exceed the cap. Nothing is
// recorded here.
func (c *Client) checkQuota(ctx context.Context, q quota, count, size int64) error {
	now := c.now()

	local, err := c.cache.Counter(q.subject, q.kind, dayKey(now))
	if err != nil {
		c.log.Warnf("Ignoring unreadable local %s counter: %v", q.kind, err)
	} else if err := q.exceeded(local.Count, local.Size, count, size); err != nil {
		c.log.Debugf("Local %s counter rejected %s", q.kind, q.subject)
		return err
	}

	remote, err := c.records.UsageSince(ctx, q.subject, q.kind, startOfDay(now))
	if err != nil {
		return storageErr("read usage", err)
	}
	return q.exceeded(remote.Count, remote.Size, count, size)
}

func (q quota) exceeded(curCount, curSize, addCount, addSize int64) error {
	if curCount+addCount > q.maxCount {
		return &kerrors.RateLimitError{Dimension: kerrors.DimensionCount, Limit: q.maxCount, Current: curCount}
	}
	if q.maxBytes > 0 && curSize+addSize > q.maxBytes {
		return &kerrors.RateLimitError{Dimension: kerrors.DimensionSize, Limit: q.maxBytes, Current: curSize}
	}
	return nil
}

// recordUsage counts one completed item locally and remotely. Failures are
// logged; the item itself already exists.
func (c *Client) recordUsage(ctx context.Context, q quota, size int64) {
	if err := c.records.AddRateRecord(ctx, q.subject, q.kind, size, c.now()); err != nil {
		c.log.Warnf("Failed to record %s usage: %v", q.kind, err)
	}
	if err := c.cache.AddUsage(q.subject, q.kind, dayKey(c.now()), size); err != nil {
		c.log.Warnf("Failed to update local %s counter: %v", q.kind, err)
	}
}

// Usage reports today's usage of accountID against its upload and share caps.
type Usage struct {
	Files     int64
	Bytes     int64
	Shares    int64
	MaxFiles  int64
	MaxBytes  int64
	MaxShares int64
	ResetsAt  time.Time
}

// Usage returns the account's usage for the current day.
func (c *Client) Usage(ctx context.Context, accountID string) (*Usage, error) {
	since := startOfDay(c.now())

	uploads, err := c.records.UsageSince(ctx, accountID, records.KindUpload, since)
	if err != nil {
		return nil, storageErr("read usage", err)
	}
	shares, err := c.records.UsageSince(ctx, accountID, records.KindShare, since)
	if err != nil {
		return nil, storageErr("read usage", err)
	}

	return &Usage{
		Files:     uploads.Count,
		Bytes:     uploads.Size,
		Shares:    shares.Count,
		MaxFiles:  c.limits.MaxFilesPerDay,
		MaxBytes:  c.limits.MaxBytesPerDay,
		MaxShares: c.limits.MaxSharesPerDay,
		ResetsAt:  since.AddDate(0, 0, 1),
	}, nil
}
