package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/kahu/internal/audit"
)

// SweepResult counts what Sweep removed.
type SweepResult struct {
	Files  int
	Shares int
}

// Sweep deletes expired files and shares together with their objects. Items
// that fail are left for the next sweep; the error joins their failures.
func (c *Client) Sweep(ctx context.Context) (*SweepResult, error) {
	now := c.now()
	result := &SweepResult{}
	var errs []error

	shares, err := c.records.ExpiredShares(ctx, now)
	if err != nil {
		return nil, storageErr("list expired shares", err)
	}
	for i := range shares {
		if err := c.removeShare(ctx, &shares[i]); err != nil {
			errs = append(errs, fmt.Errorf("share %s: %w", shares[i].ShareID, err))
			continue
		}
		result.Shares++
	}

	files, err := c.records.ExpiredFiles(ctx, now)
	if err != nil {
		return result, storageErr("list expired files", err)
	}
	for i := range files {
		if err := c.removeFile(ctx, &files[i]); err != nil {
			errs = append(errs, fmt.Errorf("file %s: %w", files[i].ID, err))
			continue
		}
		result.Files++
	}

	if removed := result.Files + result.Shares; removed > 0 {
		c.audit.Record(audit.Entry{Operation: audit.OpSweep, RemovedCount: removed})
		c.log.Infof("Swept %d files and %d shares", result.Files, result.Shares)
	}
	return result, errors.Join(errs...)
}
