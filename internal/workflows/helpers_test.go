package workflows

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PolarWolf314/kahu/internal/audit"
	"github.com/PolarWolf314/kahu/internal/cache"
	"github.com/PolarWolf314/kahu/internal/configs"
	logger "github.com/PolarWolf314/kahu/internal/logging"
	"github.com/PolarWolf314/kahu/internal/records"
	"github.com/PolarWolf314/kahu/internal/secrets"
	"github.com/PolarWolf314/kahu/internal/storage"
	"github.com/stretchr/testify/require"
)

var (
	fixtureOnce     sync.Once
	fixtureIdentity *secrets.GeneratedIdentity
	fixtureErr      error
)

// testIdentity returns one generated identity shared by the whole package.
func testIdentity(t *testing.T) *secrets.GeneratedIdentity {
	t.Helper()
	fixtureOnce.Do(func() {
		fixtureIdentity, fixtureErr = secrets.GenerateIdentity()
	})
	require.NoError(t, fixtureErr)
	return fixtureIdentity
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingStore counts transfers through an object store.
type countingStore struct {
	storage.Store
	puts atomic.Int64
	gets atomic.Int64
}

func (s *countingStore) Put(ctx context.Context, key string, data []byte) error {
	s.puts.Add(1)
	return s.Store.Put(ctx, key, data)
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, key)
}

type testEnv struct {
	client    *Client
	objects   *countingStore
	memory    *storage.Memory
	records   *records.Store
	cache     *cache.Disk
	clock     *fakeClock
	auditPath string
	generated *atomic.Int64
}

type envOption func(*Deps)

func withLimits(mutate func(*configs.Limits)) envOption {
	return func(d *Deps) { mutate(&d.Limits) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	id := testIdentity(t)

	rec, err := records.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	disk, err := cache.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = disk.Close() })

	memory := storage.NewMemory("kahu")
	env := &testEnv{
		objects:   &countingStore{Store: memory},
		memory:    memory,
		records:   rec,
		cache:     disk,
		clock:     &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		auditPath: filepath.Join(t.TempDir(), "audit.jsonl"),
		generated: &atomic.Int64{},
	}

	deps := Deps{
		Objects: env.objects,
		Records: rec,
		Cache:   disk,
		Limits:  configs.DefaultLimits(),
		Logger:  logger.Logger{},
		Audit:   audit.New(env.auditPath),
		Now:     env.clock.Now,
		Generate: func() (*secrets.GeneratedIdentity, error) {
			env.generated.Add(1)
			copied := *id
			return &copied, nil
		},
	}
	for _, o := range opts {
		o(&deps)
	}

	env.client, err = New(deps)
	require.NoError(t, err)
	return env
}

// withClient returns a second client over the same stores with a fresh session.
func (e *testEnv) withClient(t *testing.T, mutate func(*Deps)) *Client {
	t.Helper()
	deps := Deps{
		Objects:  e.objects,
		Records:  e.records,
		Cache:    e.cache,
		Limits:   e.client.limits,
		Now:      e.clock.Now,
		Generate: e.client.generate,
	}
	if mutate != nil {
		mutate(&deps)
	}
	c, err := New(deps)
	require.NoError(t, err)
	return c
}

func (e *testEnv) account(t *testing.T, id string) Account {
	return Account{ID: id, Identity: &testIdentity(t).Identity}
}

func (e *testEnv) auditOps(t *testing.T) []string {
	t.Helper()
	entries, err := audit.ReadEntries(e.auditPath)
	require.NoError(t, err)
	ops := make([]string, len(entries))
	for i, entry := range entries {
		ops[i] = entry.Operation
	}
	return ops
}

// writeFiles creates files in a fresh directory and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return dir
}

// uploadOne uploads a single file and returns its ID.
func (e *testEnv) uploadOne(t *testing.T, account Account, name, content string) string {
	t.Helper()
	dir := writeFiles(t, map[string]string{name: content})
	res, err := e.client.Upload(context.Background(), UploadOptions{
		Account:  account,
		Patterns: []string{name},
		BaseDir:  dir,
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	return res.Files[0].ID
}
