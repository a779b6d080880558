package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/google/uuid"
)

const (
	BackendMinio  = "minio"
	BackendMemory = "memory"

	EnvAccessKey  = "KAHU_STORAGE_ACCESS_KEY"
	EnvSecretKey  = "KAHU_STORAGE_SECRET_KEY"
	EnvPassphrase = "KAHU_PASSPHRASE"

	// EnvSharePassphrase supplies share passphrases to share, fetch and try
	// when no terminal is attached.
	EnvSharePassphrase = "KAHU_SHARE_PASSPHRASE"

	MiB = 1 << 20
)

type Config struct {
	Account  AccountConfig  `toml:"account"`
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	Limits   Limits         `toml:"limits"`
}

type AccountConfig struct {
	ID string `toml:"id"`
}

type StorageConfig struct {
	Backend  string   `toml:"backend"`
	Endpoint string   `toml:"endpoint"`
	Bucket   string   `toml:"bucket"`
	Region   string   `toml:"region"`
	UseSSL   bool     `toml:"use_ssl"`
	URLTTL   Duration `toml:"url_ttl"`

	// Prefer the environment for credentials; it overrides these.
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type CacheConfig struct {
	Path        string `toml:"path"`
	SessionSize int    `toml:"session_size"`
}

// Limits bound what one account, or one trial origin, may do per day.
type Limits struct {
	MaxFilesPerDay      int64    `toml:"max_files_per_day"`
	MaxBytesPerDay      int64    `toml:"max_bytes_per_day"`
	MaxSharesPerDay     int64    `toml:"max_shares_per_day"`
	TrialMaxFilesPerDay int64    `toml:"trial_max_files_per_day"`
	TrialMaxBytesPerDay int64    `toml:"trial_max_bytes_per_day"`
	FileTTL             Duration `toml:"file_ttl"`
	ShareTTL            Duration `toml:"share_ttl"`
	MaxDownloads        int      `toml:"max_downloads"`
}

// Duration is a time.Duration written as a string such as "24h".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultLimits are the daily quotas of the hosted service.
func DefaultLimits() Limits {
	return Limits{
		MaxFilesPerDay:      5,
		MaxBytesPerDay:      100 * MiB,
		MaxSharesPerDay:     5,
		TrialMaxFilesPerDay: 2,
		TrialMaxBytesPerDay: 50 * MiB,
		FileTTL:             Duration{24 * time.Hour},
		ShareTTL:            Duration{24 * time.Hour},
		MaxDownloads:        5,
	}
}

// Default returns a configuration rooted at paths with no account or storage
// endpoint set.
func Default(paths Paths) *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendMinio,
			Region:  "us-east-1",
			URLTTL:  Duration{5 * time.Minute},
		},
		Database: DatabaseConfig{Path: paths.DatabaseFile()},
		Cache:    CacheConfig{Path: paths.CacheDir(), SessionSize: 16},
		Limits:   DefaultLimits(),
	}
}

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string, paths Paths) (*Config, error) {
	cfg := Default(paths)

	err := LoadTOML(path, cfg)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes cfg to path. Credentials taken from the environment are not
// written back.
func Save(path string, cfg *Config) error {
	out := *cfg
	if os.Getenv(EnvAccessKey) != "" {
		out.Storage.AccessKey = ""
	}
	if os.Getenv(EnvSecretKey) != "" {
		out.Storage.SecretKey = ""
	}
	if err := SaveTOML(path, &out); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAccessKey); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		c.Storage.SecretKey = v
	}
}

// EnsureAccountID assigns a new account ID if none is set and reports
// whether it did.
func (c *Config) EnsureAccountID() bool {
	if c.Account.ID != "" {
		return false
	}
	c.Account.ID = uuid.NewString()
	return true
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Account.ID == "" {
		missing = append(missing, "account.id")
	}
	if c.Database.Path == "" {
		missing = append(missing, "database.path")
	}
	if c.Cache.Path == "" {
		missing = append(missing, "cache.path")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendMinio:
		if c.Storage.Endpoint == "" {
			missing = append(missing, "storage.endpoint")
		}
		if c.Storage.Bucket == "" {
			missing = append(missing, "storage.bucket")
		}
		if c.Storage.AccessKey == "" {
			missing = append(missing, EnvAccessKey)
		}
		if c.Storage.SecretKey == "" {
			missing = append(missing, EnvSecretKey)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", kerrors.ErrInvalidConfig, c.Storage.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", kerrors.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return c.Limits.Validate()
}

// Validate rejects limits that would block every operation.
func (l Limits) Validate() error {
	var bad []string
	if l.MaxFilesPerDay <= 0 {
		bad = append(bad, "limits.max_files_per_day")
	}
	if l.MaxBytesPerDay <= 0 {
		bad = append(bad, "limits.max_bytes_per_day")
	}
	if l.MaxSharesPerDay <= 0 {
		bad = append(bad, "limits.max_shares_per_day")
	}
	if l.TrialMaxFilesPerDay <= 0 {
		bad = append(bad, "limits.trial_max_files_per_day")
	}
	if l.TrialMaxBytesPerDay <= 0 {
		bad = append(bad, "limits.trial_max_bytes_per_day")
	}
	if l.FileTTL.Duration <= 0 {
		bad = append(bad, "limits.file_ttl")
	}
	if l.ShareTTL.Duration <= 0 {
		bad = append(bad, "limits.share_ttl")
	}
	if l.MaxDownloads <= 0 {
		bad = append(bad, "limits.max_downloads")
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: must be positive: %s", kerrors.ErrInvalidConfig, strings.Join(bad, ", "))
	}
	return nil
}
