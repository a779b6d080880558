package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/PolarWolf314/kahu/internal/audit"
	"github.com/PolarWolf314/kahu/internal/cache"
	"github.com/PolarWolf314/kahu/internal/configs"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/PolarWolf314/kahu/internal/records"
	"github.com/PolarWolf314/kahu/internal/storage"
	"github.com/PolarWolf314/kahu/internal/utils"
	"github.com/PolarWolf314/kahu/internal/workflows"
)

// app is the composition root: one per command run.
type app struct {
	cfg     *configs.Config
	paths   configs.Paths
	client  *workflows.Client
	records *records.Store
	cache   *cache.Disk
}

// memoryBuckets keeps memory-backend objects alive across commands run in
// one process.
var (
	memoryMu      sync.Mutex
	memoryBuckets = map[string]*storage.Memory{}
)

func loadConfig() (*configs.Config, configs.Paths, string, error) {
	paths, err := configs.DefaultPaths()
	if err != nil {
		return nil, configs.Paths{}, "", err
	}
	path := configPath
	if path == "" {
		path = paths.ConfigFile()
	}
	Logger.Debugf("Loading config from %s", path)
	cfg, err := configs.Load(path, paths)
	if err != nil {
		return nil, paths, path, err
	}
	return cfg, paths, path, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, paths, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	objects, err := openObjects(ctx, cfg)
	if err != nil {
		return nil, err
	}

	Logger.Debugf("Opening record store %s", cfg.Database.Path)
	rec, err := records.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	Logger.Debugf("Opening local cache %s", cfg.Cache.Path)
	disk, err := cache.OpenDisk(cfg.Cache.Path)
	if err != nil {
		_ = rec.Close()
		return nil, err
	}

	session, err := cache.NewSession(cfg.Cache.SessionSize)
	if err != nil {
		_ = disk.Close()
		_ = rec.Close()
		return nil, err
	}

	client, err := workflows.New(workflows.Deps{
		Objects: objects,
		Records: rec,
		Cache:   disk,
		Session: session,
		Limits:  cfg.Limits,
		Logger:  Logger,
		Audit:   audit.New(paths.AuditFile()),
	})
	if err != nil {
		_ = disk.Close()
		_ = rec.Close()
		return nil, err
	}

	return &app{cfg: cfg, paths: paths, client: client, records: rec, cache: disk}, nil
}

func openObjects(ctx context.Context, cfg *configs.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case configs.BackendMemory:
		bucket := cfg.Storage.Bucket
		if bucket == "" {
			bucket = "kahu"
		}
		Logger.Infof("Using the in-memory object store; objects do not outlive this process")
		memoryMu.Lock()
		defer memoryMu.Unlock()
		m, ok := memoryBuckets[bucket]
		if !ok {
			m = storage.NewMemory(bucket)
			memoryBuckets[bucket] = m
		}
		return m, nil
	default:
		m, err := storage.NewMinio(storage.MinioOptions{
			Endpoint:  cfg.Storage.Endpoint,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			PutTTL:    cfg.Storage.URLTTL.Duration,
		})
		if err != nil {
			return nil, err
		}
		Logger.Debugf("Ensuring bucket %s at %s", cfg.Storage.Bucket, cfg.Storage.Endpoint)
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		Logger.Warnf("Failed to close local cache: %v", err)
	}
	if err := a.records.Close(); err != nil {
		Logger.Warnf("Failed to close record store: %v", err)
	}
}

// unlock resolves the account identity, asking for the passphrase unless
// KAHU_PASSPHRASE is set. A first-time passphrase is asked twice.
func (a *app) unlock(ctx context.Context) (*workflows.IdentityResult, error) {
	id := a.cfg.Account.ID
	set, err := a.client.PassphraseSet(ctx, id)
	if err != nil {
		return nil, err
	}

	prompt := "Passphrase: "
	if !set {
		prompt = "Choose a passphrase for this account: "
	}
	pass, err := readSecret(configs.EnvPassphrase, prompt, !set)
	if err != nil {
		return nil, err
	}

	Logger.Debugf("Resolving identity for account %s", id)
	res, err := a.client.ResolveIdentity(ctx, id, pass)
	if err != nil {
		return nil, err
	}
	Logger.Infof("Identity loaded from %s", res.Source)
	return res, nil
}

// readSecret returns the value of env if set, otherwise prompts on the
// terminal. With confirm set the passphrase is asked twice.
func readSecret(env, prompt string, confirm bool) (string, error) {
	if v := os.Getenv(env); v != "" {
		Logger.Debugf("Using passphrase from %s", env)
		return v, nil
	}
	if !utils.IsTerminal() {
		return "", fmt.Errorf("no terminal to prompt on; set %s", env)
	}

	read := utils.ReadPassphrase
	if confirm {
		read = utils.ReadNewPassphrase
	}
	b, err := read(prompt)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", kerrors.ErrEmptyPassphrase
	}
	return string(b), nil
}
