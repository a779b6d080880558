package cache

import (
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/kahu/internal/secrets"
	"github.com/stretchr/testify/require"
)

func TestKeyPairCache(t *testing.T) {
	d, err := OpenMemory()
	require.NoError(t, err)
	defer d.Close()

	_, err = d.GetKeyPair("acct")
	require.ErrorIs(t, err, ErrMiss)

	entry := &KeyPairEntry{AccountID: "acct", PublicKey: "pub", WrappedPrivateKey: "wrapped", IV: "iv"}
	require.NoError(t, d.PutKeyPair(entry))

	got, err := d.GetKeyPair("acct")
	require.NoError(t, err)
	require.Equal(t, entry, got)
}

func TestDiskPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	d, err := OpenDisk(dir)
	require.NoError(t, err)
	require.NoError(t, d.PutKeyPair(&KeyPairEntry{AccountID: "acct", PublicKey: "pub"}))
	require.NoError(t, d.AddUsage("acct", "upload", "2026-01-02", 10))
	require.NoError(t, d.Close())

	d, err = OpenDisk(dir)
	require.NoError(t, err)
	defer d.Close()

	got, err := d.GetKeyPair("acct")
	require.NoError(t, err)
	require.Equal(t, "pub", got.PublicKey)

	c, err := d.Counter("acct", "upload", "2026-01-02")
	require.NoError(t, err)
	require.Equal(t, int64(1), c.Count)
}

func TestCounterIsDayStamped(t *testing.T) {
	d, err := OpenMemory()
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.AddUsage("acct", "upload", "2026-01-02", 100))
	require.NoError(t, d.AddUsage("acct", "upload", "2026-01-02", 50))
	require.NoError(t, d.AddUsage("acct", "share", "2026-01-02", 7))

	c, err := d.Counter("acct", "upload", "2026-01-02")
	require.NoError(t, err)
	require.Equal(t, Counter{Date: "2026-01-02", Count: 2, Size: 150}, c)

	// A counter from a previous day reads as zero and restarts on write.
	c, err = d.Counter("acct", "upload", "2026-01-03")
	require.NoError(t, err)
	require.Equal(t, Counter{Date: "2026-01-03"}, c)

	require.NoError(t, d.AddUsage("acct", "upload", "2026-01-03", 1))
	c, err = d.Counter("acct", "upload", "2026-01-03")
	require.NoError(t, err)
	require.Equal(t, int64(1), c.Count)
	require.Equal(t, int64(1), c.Size)

	c, err = d.Counter("acct", "share", "2026-01-02")
	require.NoError(t, err)
	require.Equal(t, int64(1), c.Count)
}

func TestSessionEvicts(t *testing.T) {
	s, err := NewSession(2)
	require.NoError(t, err)

	a := &secrets.Identity{PublicKeyB64: "a"}
	s.Put("a", a)
	s.Put("b", &secrets.Identity{PublicKeyB64: "b"})

	got, ok := s.Get("a")
	require.True(t, ok)
	require.Same(t, a, got)

	s.Put("c", &secrets.Identity{PublicKeyB64: "c"})
	_, ok = s.Get("b")
	require.False(t, ok, "least recently used entry should be evicted")
	_, ok = s.Get("c")
	require.True(t, ok)
}

func TestSessionDefaultSize(t *testing.T) {
	s, err := NewSession(0)
	require.NoError(t, err)
	for i := 0; i < DefaultSessionSize+1; i++ {
		s.Put(string(rune('a'+i)), &secrets.Identity{})
	}
	_, ok := s.Get("a")
	require.False(t, ok, "first entry should be evicted once the default size is exceeded")
	_, ok = s.Get(string(rune('a' + DefaultSessionSize)))
	require.True(t, ok)
}
