package workflows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PolarWolf314/kahu/internal/audit"
	"github.com/PolarWolf314/kahu/internal/configs"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "plans.txt", "meet at dawn")

	share, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "tuatara", MaxDownloads: 3})
	require.NoError(t, err)
	require.Equal(t, "plans.txt", share.Name)
	require.Equal(t, 3, share.MaxDownloads)
	require.Equal(t, env.clock.Now().Add(24*time.Hour), share.ExpireAt)

	var shareKeys int
	for _, key := range env.memory.Keys() {
		if strings.HasPrefix(key, "upload/share/") {
			shareKeys++
		}
	}
	require.Equal(t, 1, shareKeys)

	rec, err := env.records.GetShare(ctx, share.ShareID)
	require.NoError(t, err)
	require.NotContains(t, rec.PassphraseHash, "tuatara")
	require.NotEqual(t, rec.IV, rec.FilenameIV)

	got, err := env.client.FetchShare(ctx, share.ShareID, "tuatara")
	require.NoError(t, err)
	require.Equal(t, "plans.txt", got.Name)
	require.Equal(t, "meet at dawn", string(got.Data))

	listed, err := env.client.ListShares(ctx, owner)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, id, listed[0].FileID)
	require.Equal(t, "plans.txt", listed[0].Name)
	require.Equal(t, 1, listed[0].DownloadCount)

	files, err := env.client.ListFiles(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, share.ShareID, files[0].ShareID)

	require.Equal(t, []string{audit.OpUpload, audit.OpShare, audit.OpShareDownload}, env.auditOps(t))
}

func TestShareOnlyOncePerFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	_, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "one"})
	require.NoError(t, err)

	puts, gets := env.objects.puts.Load(), env.objects.gets.Load()
	_, err = env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "two"})
	require.ErrorIs(t, err, kerrors.ErrAlreadyShared)
	require.Equal(t, puts, env.objects.puts.Load(), "no ciphertext written")
	require.Equal(t, gets, env.objects.gets.Load(), "no ciphertext read")
}

func TestShareConcurrentCreateKeepsOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, kerrors.ErrAlreadyShared)
	}
	require.Equal(t, 1, ok)

	shares, err := env.client.ListShares(ctx, owner)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	require.Len(t, env.memory.Keys(), 2, "losing racers clean up their objects")
}

func TestShareReplacesExpiredShare(t *testing.T) {
	env := newTestEnv(t, withLimits(func(l *configs.Limits) {
		l.ShareTTL = configs.Duration{Duration: time.Hour}
	}))
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	first, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	second, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
	require.NoError(t, err)
	require.NotEqual(t, first.ShareID, second.ShareID)

	_, err = env.client.FetchShare(ctx, first.ShareID, "pw")
	require.ErrorIs(t, err, kerrors.ErrShareNotFound)
	require.Len(t, env.memory.Keys(), 2)
}

func TestConsumeDownloadLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	share, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw", MaxDownloads: 2})
	require.NoError(t, err)

	_, err = env.client.ConsumeDownload(ctx, share.ShareID, "pw")
	require.NoError(t, err)
	_, err = env.client.ConsumeDownload(ctx, share.ShareID, "pw")
	require.NoError(t, err)

	gets := env.objects.gets.Load()
	_, err = env.client.ConsumeDownload(ctx, share.ShareID, "pw")
	require.ErrorIs(t, err, kerrors.ErrLimitReached)
	require.Equal(t, gets, env.objects.gets.Load(), "an exhausted share is not fetched")

	rec, err := env.records.GetShare(ctx, share.ShareID)
	require.NoError(t, err)
	require.Equal(t, 2, rec.DownloadCount)
}

func TestConsumeDownloadConcurrentNeverExceedsMax(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	share, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw", MaxDownloads: 2})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.client.ConsumeDownload(ctx, share.ShareID, "pw")
			if err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, kerrors.ErrLimitReached)
		}()
	}
	wg.Wait()
	require.Equal(t, 2, granted)
}

func TestConsumeDownloadExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	share, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
	require.NoError(t, err)

	env.clock.Advance(24*time.Hour + time.Second)
	_, err = env.client.ConsumeDownload(ctx, share.ShareID, "pw")
	require.ErrorIs(t, err, kerrors.ErrShareExpired)
}

func TestGateDoesNotGrantDecryption(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	share, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "right"})
	require.NoError(t, err)

	granted, err := env.client.VerifyAccess(ctx, share.ShareID, "right")
	require.NoError(t, err)
	require.True(t, granted)

	_, err = env.client.ConsumeDownload(ctx, share.ShareID, "wrong")
	require.ErrorIs(t, err, kerrors.ErrDecryptFailed)

	rec, err := env.records.GetShare(ctx, share.ShareID)
	require.NoError(t, err)
	require.Zero(t, rec.DownloadCount, "a failed decryption is not counted")

	granted, err = env.client.VerifyAccess(ctx, share.ShareID, "wrong")
	require.NoError(t, err)
	require.False(t, granted)

	_, err = env.client.FetchShare(ctx, share.ShareID, "wrong")
	require.ErrorIs(t, err, kerrors.ErrAccessDenied)

	_, err = env.client.VerifyAccess(ctx, "missing", "right")
	require.ErrorIs(t, err, kerrors.ErrShareNotFound)
}

func TestShareValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	_, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id})
	require.ErrorIs(t, err, kerrors.ErrEmptyPassphrase)

	_, err = env.client.CreateShare(ctx, ShareOptions{Account: env.account(t, "other"), FileID: id, Passphrase: "pw"})
	require.ErrorIs(t, err, kerrors.ErrFileNotFound)

	env.clock.Advance(25 * time.Hour)
	_, err = env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
	require.ErrorIs(t, err, kerrors.ErrFileExpired)
}

func TestShareRateLimit(t *testing.T) {
	env := newTestEnv(t, withLimits(func(l *configs.Limits) { l.MaxSharesPerDay = 1 }))
	ctx := context.Background()
	owner := env.account(t, "acct")
	a := env.uploadOne(t, owner, "a.txt", "a")
	b := env.uploadOne(t, owner, "b.txt", "b")

	_, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: a, Passphrase: "pw"})
	require.NoError(t, err)

	_, err = env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: b, Passphrase: "pw"})
	var rle *kerrors.RateLimitError
	require.True(t, errors.As(err, &rle))
	require.Equal(t, kerrors.DimensionCount, rle.Dimension)

	usage, err := env.client.Usage(ctx, "acct")
	require.NoError(t, err)
	require.EqualValues(t, 1, usage.Shares)
}

func TestRevokeShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.account(t, "acct")
	id := env.uploadOne(t, owner, "a.txt", "data")

	share, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
	require.NoError(t, err)

	err = env.client.RevokeShare(ctx, "other", share.ShareID)
	require.ErrorIs(t, err, kerrors.ErrShareNotFound)

	require.NoError(t, env.client.RevokeShare(ctx, "acct", share.ShareID))
	require.Len(t, env.memory.Keys(), 1)

	_, err = env.client.ConsumeDownload(ctx, share.ShareID, "pw")
	require.ErrorIs(t, err, kerrors.ErrShareNotFound)

	// The file can be shared again, under a new identifier.
	again, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
	require.NoError(t, err)
	require.NotEqual(t, share.ShareID, again.ShareID)
}

func TestShareOfAnotherAccountsFile(t *testing.T) {
	env := newTestEnv(t, withLimits(func(l *configs.Limits) {
		l.ShareTTL = configs.Duration{Duration: time.Hour}
	}))
	ctx := context.Background()
	owner := env.account(t, "acct")
	other := env.account(t, "other")
	id := env.uploadOne(t, owner, "a.txt", "data")

	share, err := env.client.CreateShare(ctx, ShareOptions{Account: owner, FileID: id, Passphrase: "pw"})
	require.NoError(t, err)
	keys := env.memory.Keys()

	assertUntouched := func(t *testing.T, err error) {
		t.Helper()
		require.ErrorIs(t, err, kerrors.ErrFileNotFound)
		require.NotErrorIs(t, err, kerrors.ErrAlreadyShared)
		require.NotContains(t, err.Error(), share.ShareID)

		rec, err := env.records.GetShare(ctx, share.ShareID)
		require.NoError(t, err)
		require.Equal(t, "acct", *rec.OwnerID)
		require.ElementsMatch(t, keys, env.memory.Keys())
	}

	t.Run("active share", func(t *testing.T) {
		_, err := env.client.CreateShare(ctx, ShareOptions{Account: other, FileID: id, Passphrase: "pw"})
		assertUntouched(t, err)
	})

	t.Run("expired share", func(t *testing.T) {
		env.clock.Advance(2 * time.Hour)
		_, err := env.client.CreateShare(ctx, ShareOptions{Account: other, FileID: id, Passphrase: "pw"})
		assertUntouched(t, err)
	})
}
