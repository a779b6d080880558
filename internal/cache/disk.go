package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// ErrMiss indicates the key is not cached.
var ErrMiss = errors.New("cache miss")

const (
	keyPairPrefix = "keypair/"
	ratePrefix    = "rate/"
)

// KeyPairEntry is the locally cached wrapped identity of one account.
type KeyPairEntry struct {
	AccountID         string `json:"account_id"`
	PublicKey         string `json:"public_key"`
	WrappedPrivateKey string `json:"wrapped_private_key"`
	IV                string `json:"iv"`
}

// Counter is a day-stamped usage counter. A counter whose Date is not the
// current day is stale and reads as zero.
type Counter struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
	Size  int64  `json:"size"`
}

// Store is the local cache of wrapped keypairs and rate counters.
type Store interface {
	GetKeyPair(accountID string) (*KeyPairEntry, error)
	PutKeyPair(entry *KeyPairEntry) error
	// Counter returns the counter for subject and kind on day, zero if absent
	// or stale.
	Counter(subject, kind, day string) (Counter, error)
	// AddUsage adds one item of size bytes to the counter for day.
	AddUsage(subject, kind, day string, size int64) error
	Close() error
}

// Disk is a Store backed by leveldb.
type Disk struct {
	db *leveldb.DB
}

var _ Store = (*Disk)(nil)

// OpenDisk opens or creates a leveldb cache in dir.
func OpenDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	stor, err := storage.OpenFile(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache storage: %w", err)
	}
	return openDisk(stor)
}

// OpenMemory opens a cache that lives only in memory.
func OpenMemory() (*Disk, error) {
	return openDisk(storage.NewMemStorage())
}

func openDisk(stor storage.Storage) (*Disk, error) {
	db, err := leveldb.Open(stor, &opt.Options{
		Compression: opt.NoCompression,
	})
	if err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &Disk{db: db}, nil
}

func (d *Disk) Close() error {
	return d.db.Close()
}

func (d *Disk) get(key string, v any) error {
	raw, err := d.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return nil
}

func (d *Disk) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.db.Put([]byte(key), raw, nil)
}

func (d *Disk) GetKeyPair(accountID string) (*KeyPairEntry, error) {
	var entry KeyPairEntry
	if err := d.get(keyPairPrefix+accountID, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (d *Disk) PutKeyPair(entry *KeyPairEntry) error {
	return d.put(keyPairPrefix+entry.AccountID, entry)
}

func rateKey(subject, kind string) string {
	return ratePrefix + kind + "/" + subject
}

func (d *Disk) Counter(subject, kind, day string) (Counter, error) {
	var c Counter
	err := d.get(rateKey(subject, kind), &c)
	if err == ErrMiss || (err == nil && c.Date != day) {
		return Counter{Date: day}, nil
	}
	if err != nil {
		return Counter{}, err
	}
	return c, nil
}

func (d *Disk) AddUsage(subject, kind, day string, size int64) error {
	c, err := d.Counter(subject, kind, day)
	if err != nil {
		return err
	}
	c.Count++
	c.Size += size
	return d.put(rateKey(subject, kind), c)
}
