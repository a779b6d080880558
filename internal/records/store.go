package records

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotFound indicates no record matched.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("record conflicts with an existing record")
)

// Store is the relational record store for files, shares, key pairs and rate
// records.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path and migrates the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		// Times are stored as text; one zone keeps them ordered.
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// sqlite allows one writer; an in-memory database only exists on its connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&User{}, &UserKeyPair{}, &File{}, &FileShare{}, &UploadRateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

// MarkPassphraseSet records that the account finished passphrase setup.
func (s *Store) MarkPassphraseSet(ctx context.Context, accountID string) error {
	user := User{AccountID: accountID, PassphraseSet: true}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"passphrase_set", "updated_at"}),
	}).Create(&user).Error
	return translate(err)
}

// PassphraseSet reports whether the account finished passphrase setup.
func (s *Store) PassphraseSet(ctx context.Context, accountID string) (bool, error) {
	var user User
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.PassphraseSet, nil
}

// GetUserKeyPair returns the account's wrapped identity or ErrNotFound.
func (s *Store) GetUserKeyPair(ctx context.Context, accountID string) (*UserKeyPair, error) {
	var kp UserKeyPair
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&kp).Error; err != nil {
		return nil, translate(err)
	}
	return &kp, nil
}

// SaveUserKeyPair upserts the account's wrapped identity. Last write wins.
func (s *Store) SaveUserKeyPair(ctx context.Context, kp *UserKeyPair) error {
	return translate(s.db.WithContext(ctx).Save(kp).Error)
}

// CreateFile inserts a file record.
func (s *Store) CreateFile(ctx context.Context, f *File) error {
	f.ExpireAt = f.ExpireAt.UTC()
	return translate(s.db.WithContext(ctx).Create(f).Error)
}

// GetFile returns the file with id or ErrNotFound.
func (s *Store) GetFile(ctx context.Context, id string) (*File, error) {
	var f File
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// ListFiles returns the owner's files, newest first.
func (s *Store) ListFiles(ctx context.Context, ownerID string) ([]File, error) {
	var files []File
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&files).Error
	return files, translate(err)
}

// DeleteFile removes the file record. Missing records are not an error.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Where("id = ?", id).Delete(&File{}).Error)
}

// ExpiredFiles returns files whose expiry is before now.
func (s *Store) ExpiredFiles(ctx context.Context, now time.Time) ([]File, error) {
	var files []File
	err := s.db.WithContext(ctx).Where("expire_at < ?", now.UTC()).Find(&files).Error
	return files, translate(err)
}

// CreateShare inserts a share record. A second share for the same source
// file fails with ErrConflict.
func (s *Store) CreateShare(ctx context.Context, share *FileShare) error {
	share.ExpireAt = share.ExpireAt.UTC()
	return translate(s.db.WithContext(ctx).Create(share).Error)
}

// GetShare returns the share with id or ErrNotFound.
func (s *Store) GetShare(ctx context.Context, shareID string) (*FileShare, error) {
	var share FileShare
	if err := s.db.WithContext(ctx).Where("share_id = ?", shareID).First(&share).Error; err != nil {
		return nil, translate(err)
	}
	return &share, nil
}

// ShareForFile returns the share created from fileID or ErrNotFound.
func (s *Store) ShareForFile(ctx context.Context, fileID string) (*FileShare, error) {
	var share FileShare
	if err := s.db.WithContext(ctx).Where("source_file_id = ?", fileID).First(&share).Error; err != nil {
		return nil, translate(err)
	}
	return &share, nil
}

// ListShares returns the owner's shares, newest first.
func (s *Store) ListShares(ctx context.Context, ownerID string) ([]FileShare, error) {
	var shares []FileShare
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&shares).Error
	return shares, translate(err)
}

// DeleteShare removes the share record. Missing records are not an error.
func (s *Store) DeleteShare(ctx context.Context, shareID string) error {
	return translate(s.db.WithContext(ctx).Where("share_id = ?", shareID).Delete(&FileShare{}).Error)
}

// ExpiredShares returns shares whose expiry is before now.
func (s *Store) ExpiredShares(ctx context.Context, now time.Time) ([]FileShare, error) {
	var shares []FileShare
	err := s.db.WithContext(ctx).Where("expire_at < ?", now.UTC()).Find(&shares).Error
	return shares, translate(err)
}

// IncrementDownloadCount atomically bumps the share's download count if it is
// still below the maximum. It reports false when no download remained.
func (s *Store) IncrementDownloadCount(ctx context.Context, shareID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&FileShare{}).
		Where("share_id = ? AND download_count < max_downloads", shareID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AddRateRecord counts one upload or share against subject at time at.
func (s *Store) AddRateRecord(ctx context.Context, subject, kind string, size int64, at time.Time) error {
	rec := UploadRateRecord{Subject: subject, Kind: kind, Size: size, CreatedAt: at.UTC()}
	return translate(s.db.WithContext(ctx).Create(&rec).Error)
}

// UsageSince aggregates subject's records of kind created at or after since.
func (s *Store) UsageSince(ctx context.Context, subject, kind string, since time.Time) (Usage, error) {
	var usage Usage
	err := s.db.WithContext(ctx).Model(&UploadRateRecord{}).
		Select("COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Where("subject = ? AND kind = ? AND created_at >= ?", subject, kind, since.UTC()).
		Scan(&usage).Error
	return usage, translate(err)
}
