package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PolarWolf314/kahu/internal/audit"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestTrialShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := writeFiles(t, map[string]string{"a.txt": "alpha", "b.txt": "bravo", "c.txt": "charlie"})

	res, err := env.client.CreateTrialShare(ctx, TrialOptions{
		Origin:     "203.0.113.7",
		Patterns:   []string{"a.txt", "b.txt"},
		BaseDir:    dir,
		Passphrase: "kiwi",
	})
	require.NoError(t, err)
	require.Len(t, res.Shares, 2)

	contents := map[string]string{}
	for _, s := range res.Shares {
		got, err := env.client.FetchShare(ctx, s.ShareID, "kiwi")
		require.NoError(t, err)
		contents[got.Name] = string(got.Data)

		rec, err := env.records.GetShare(ctx, s.ShareID)
		require.NoError(t, err)
		require.Nil(t, rec.OwnerID)
		require.Nil(t, rec.SourceFileID)
		require.Equal(t, "203.0.113.7", *rec.Origin)
	}
	require.Equal(t, map[string]string{"a.txt": "alpha", "b.txt": "bravo"}, contents)

	// Two files a day per origin.
	_, err = env.client.CreateTrialShare(ctx, TrialOptions{
		Origin: "203.0.113.7", Patterns: []string{"c.txt"}, BaseDir: dir, Passphrase: "kiwi",
	})
	var rle *kerrors.RateLimitError
	require.True(t, errors.As(err, &rle))
	require.Equal(t, kerrors.DimensionCount, rle.Dimension)

	// Another origin is counted separately.
	_, err = env.client.CreateTrialShare(ctx, TrialOptions{
		Origin: "198.51.100.2", Patterns: []string{"c.txt"}, BaseDir: dir, Passphrase: "kiwi",
	})
	require.NoError(t, err)

	ops := env.auditOps(t)
	require.Contains(t, ops, audit.OpTrial)
	require.Contains(t, ops, audit.OpShareDownload)
}

func TestTrialShareValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := writeFiles(t, map[string]string{"a.txt": "alpha"})

	_, err := env.client.CreateTrialShare(ctx, TrialOptions{Patterns: []string{"a.txt"}, BaseDir: dir, Passphrase: "kiwi"})
	require.ErrorIs(t, err, kerrors.ErrMissingConfig)

	_, err = env.client.CreateTrialShare(ctx, TrialOptions{Origin: "o", Patterns: []string{"a.txt"}, BaseDir: dir})
	require.ErrorIs(t, err, kerrors.ErrEmptyPassphrase)
}

func TestSweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")

	old := env.uploadOne(t, owner, "old.txt", "old")
	_, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: old, Passphrase: "pw"})
	require.NoError(t, err)

	env.clock.Advance(20 * time.Hour)
	fresh := env.uploadOne(t, owner, "fresh.txt", "fresh")

	env.clock.Advance(5 * time.Hour)
	res, err := env.client.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Files)
	require.Equal(t, 1, res.Shares)
	require.Len(t, env.memory.Keys(), 1)

	got, err := env.client.Download(ctx, owner, fresh)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(got.Data))

	res, err = env.client.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, res.Files+res.Shares)

	require.Contains(t, env.auditOps(t), audit.OpSweep)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	require.ErrorIs(t, err, kerrors.ErrMissingConfig)
}
