package records

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func testShare(shareID string, source *string, maxDownloads int) *FileShare {
	return &FileShare{
		ShareID:           shareID,
		OwnerID:           strPtr("owner"),
		SourceFileID:      source,
		EncryptedFilename: "enc-" + shareID,
		IV:                "iv",
		FilenameIV:        "fiv",
		PassphraseHash:    "$2a$12$hash",
		FileSize:          10,
		MaxDownloads:      maxDownloads,
		ExpireAt:          time.Now().Add(time.Hour),
	}
}

func TestOpenOnDisk(t *testing.T) {
	path := t.TempDir() + "/nested/kahu.db"
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestUserKeyPairRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUserKeyPair(ctx, "acct")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveUserKeyPair(ctx, &UserKeyPair{
		AccountID: "acct", PublicKey: "pub", WrappedPrivateKey: "wrapped", IV: "iv",
	}))
	require.NoError(t, s.SaveUserKeyPair(ctx, &UserKeyPair{
		AccountID: "acct", PublicKey: "pub2", WrappedPrivateKey: "wrapped2", IV: "iv2",
	}))

	kp, err := s.GetUserKeyPair(ctx, "acct")
	require.NoError(t, err)
	require.Equal(t, "pub2", kp.PublicKey)
	require.Equal(t, "wrapped2", kp.WrappedPrivateKey)
}

func TestPassphraseSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	set, err := s.PassphraseSet(ctx, "acct")
	require.NoError(t, err)
	require.False(t, set)

	require.NoError(t, s.MarkPassphraseSet(ctx, "acct"))
	require.NoError(t, s.MarkPassphraseSet(ctx, "acct"))

	set, err = s.PassphraseSet(ctx, "acct")
	require.NoError(t, err)
	require.True(t, set)
}

func TestFileLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	live := &File{ID: uuid.NewString(), OwnerID: "owner", EncryptedFilename: "a", FilenameIV: "x",
		WrappedKey: "k", ContentIV: "c", Size: 3, ExpireAt: now.Add(time.Hour)}
	stale := &File{ID: uuid.NewString(), OwnerID: "owner", EncryptedFilename: "b", FilenameIV: "x",
		WrappedKey: "k", ContentIV: "c", Size: 4, ExpireAt: now.Add(-time.Hour)}
	require.NoError(t, s.CreateFile(ctx, live))
	require.NoError(t, s.CreateFile(ctx, stale))

	got, err := s.GetFile(ctx, live.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), got.Size)

	files, err := s.ListFiles(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, files, 2)

	expired, err := s.ExpiredFiles(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, stale.ID, expired[0].ID)

	require.NoError(t, s.DeleteFile(ctx, stale.ID))
	_, err = s.GetFile(ctx, stale.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOneSharePerSourceFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateShare(ctx, testShare("s1", strPtr("file-1"), 5)))
	err := s.CreateShare(ctx, testShare("s2", strPtr("file-1"), 5))
	require.ErrorIs(t, err, ErrConflict)

	// Trial shares have no source file and never conflict with each other.
	require.NoError(t, s.CreateShare(ctx, testShare("t1", nil, 5)))
	require.NoError(t, s.CreateShare(ctx, testShare("t2", nil, 5)))

	share, err := s.ShareForFile(ctx, "file-1")
	require.NoError(t, err)
	require.Equal(t, "s1", share.ShareID)

	require.NoError(t, s.DeleteShare(ctx, "s1"))
	require.NoError(t, s.CreateShare(ctx, testShare("s3", strPtr("file-1"), 5)))
}

func TestIncrementDownloadCountStopsAtMax(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateShare(ctx, testShare("s1", nil, 2)))

	ok, err := s.IncrementDownloadCount(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.IncrementDownloadCount(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.IncrementDownloadCount(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)

	share, err := s.GetShare(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 2, share.DownloadCount)
	require.True(t, share.Exhausted())
}

func TestIncrementDownloadCountConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateShare(ctx, testShare("s1", nil, 3)))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.IncrementDownloadCount(ctx, "s1")
			if err == nil && ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 3, granted)
}

func TestUsageSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	since := time.Now().Add(-time.Minute)

	usage, err := s.UsageSince(ctx, "acct", KindUpload, since)
	require.NoError(t, err)
	require.Zero(t, usage.Count)
	require.Zero(t, usage.Size)

	require.NoError(t, s.AddRateRecord(ctx, "acct", KindUpload, 100, time.Now()))
	require.NoError(t, s.AddRateRecord(ctx, "acct", KindUpload, 50, time.Now()))
	require.NoError(t, s.AddRateRecord(ctx, "acct", KindShare, 999, time.Now()))
	require.NoError(t, s.AddRateRecord(ctx, "other", KindUpload, 999, time.Now()))

	usage, err = s.UsageSince(ctx, "acct", KindUpload, since)
	require.NoError(t, err)
	require.Equal(t, int64(2), usage.Count)
	require.Equal(t, int64(150), usage.Size)

	usage, err = s.UsageSince(ctx, "acct", KindUpload, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, usage.Count)
}

func TestShareExpiry(t *testing.T) {
	share := testShare("s", nil, 1)
	require.False(t, share.Expired(time.Now()))
	require.True(t, share.Expired(share.ExpireAt.Add(time.Second)))
}
