package storage

import (
	"context"
	"errors"
)

const (
	uploadPrefix = "upload/"
	sharePrefix  = "upload/share/"
)

// ErrObjectNotFound indicates the key has no object.
var ErrObjectNotFound = errors.New("object not found")

// Store is a bucket of opaque ciphertext objects addressed by key. Put and Get
// move bytes through pre-signed URLs issued by the same store.
type Store interface {
	// IssuePutURL returns a short-lived URL that accepts one PUT of key.
	IssuePutURL(ctx context.Context, key string) (string, error)
	// IssueGetURL returns a URL that serves key.
	IssueGetURL(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// UploadKey is the object key of an owner file with the given encrypted name.
func UploadKey(encryptedFilename string) string {
	return uploadPrefix + encryptedFilename
}

// ShareKey is the object key of a share copy with the given encrypted name.
func ShareKey(encryptedFilename string) string {
	return sharePrefix + encryptedFilename
}
