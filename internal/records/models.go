package records

import "time"

// Rate record kinds.
const (
	KindUpload = "upload"
	KindShare  = "share"
	KindTrial  = "trial"
)

// User tracks whether an account has completed passphrase setup.
type User struct {
	AccountID     string `gorm:"primaryKey;type:text"`
	PassphraseSet bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserKeyPair is the remote, durable copy of an account's wrapped identity.
type UserKeyPair struct {
	AccountID         string `gorm:"primaryKey;type:text"`
	PublicKey         string `gorm:"type:text;not null"` // base64 SPKI
	WrappedPrivateKey string `gorm:"type:text;not null"` // base64 AES-GCM ciphertext of PKCS8
	IV                string `gorm:"type:text;not null"` // base64, 16 bytes
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// File is the metadata of one owner-encrypted upload. The ciphertext lives in
// object storage under upload/<EncryptedFilename>.
type File struct {
	ID                string    `gorm:"primaryKey;type:text"`
	OwnerID           string    `gorm:"index;not null"`
	EncryptedFilename string    `gorm:"uniqueIndex;type:text;not null"` // URL-safe base64
	FilenameIV        string    `gorm:"type:text;not null"`
	WrappedKey        string    `gorm:"type:text;not null"` // base64 RSA-OAEP
	ContentIV         string    `gorm:"type:text;not null"`
	Size              int64     `gorm:"not null"`
	ExpireAt          time.Time `gorm:"index;not null"`
	CreatedAt         time.Time
}

// FileShare is a passphrase-encrypted copy of a file. Owner shares set
// OwnerID and SourceFileID; trial shares set Origin instead.
type FileShare struct {
	ShareID      string  `gorm:"primaryKey;type:text"`
	OwnerID      *string `gorm:"index"`
	Origin       *string `gorm:"index"`
	SourceFileID *string `gorm:"uniqueIndex"` // at most one share per source file

	EncryptedFilename string `gorm:"type:text;not null"` // URL-safe base64
	IV                string `gorm:"type:text;not null"`
	FilenameIV        string `gorm:"type:text;not null"`
	PassphraseHash    string `gorm:"type:text;not null"` // bcrypt, access gate only

	FileSize      int64     `gorm:"not null"`
	DownloadCount int       `gorm:"not null;default:0"`
	MaxDownloads  int       `gorm:"not null"`
	ExpireAt      time.Time `gorm:"index;not null"`
	CreatedAt     time.Time
}

// Expired reports whether the share is past its expiry at now.
func (s *FileShare) Expired(now time.Time) bool {
	return now.After(s.ExpireAt)
}

// Exhausted reports whether no downloads remain.
func (s *FileShare) Exhausted() bool {
	return s.DownloadCount >= s.MaxDownloads
}

// UploadRateRecord is one counted upload or share. Subject is the account ID,
// or the origin for trial shares.
type UploadRateRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Subject   string    `gorm:"index:idx_rate_subject_kind;not null"`
	Kind      string    `gorm:"index:idx_rate_subject_kind;not null"`
	Size      int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

// Usage is the aggregate of rate records in a window.
type Usage struct {
	Count int64
	Size  int64
}
