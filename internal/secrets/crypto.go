package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
)

// ContentIVSize is the AES-GCM nonce length for file content and filenames.
const ContentIVSize = 12

// FileEnvelope is one owner-encrypted file. Content and filename share the
// content key but never a nonce.
type FileEnvelope struct {
	Ciphertext []byte
	ContentIV  string // base64

	// WrappedKey is the content key sealed with RSA-OAEP under the owner's public key.
	WrappedKey string // base64

	// EncryptedFilename is URL-safe base64 so it can double as a storage key.
	EncryptedFilename string
	FilenameIV        string // base64
}

// ShareEnvelope is a file re-encrypted under a passphrase-derived key.
type ShareEnvelope struct {
	Ciphertext        []byte
	IV                string // base64
	EncryptedFilename string // URL-safe base64
	FilenameIV        string // base64
}

// DecryptedFile is plaintext content and its original name.
type DecryptedFile struct {
	Name string
	Data []byte
}

// CreateSymmetricKey generates a new random symmetric key.
func CreateSymmetricKey() ([]byte, error) {
	return randomBytes(SymmetricKeySize)
}

// EncryptContent seals plaintext under key with the given IV.
func EncryptContent(plaintext, key, iv []byte) ([]byte, error) {
	return seal(key, iv, plaintext)
}

// DecryptContent opens ciphertext under key with the given IV. Any failure is
// reported as ErrDecryptFailed.
func DecryptContent(ciphertext, key, iv []byte) ([]byte, error) {
	return open(key, iv, ciphertext)
}

// WrapContentKey encrypts a content key with RSA-OAEP/SHA-256.
func WrapContentKey(contentKey []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, contentKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	return wrapped, nil
}

// UnwrapContentKey decrypts a content key with RSA-OAEP/SHA-256.
func UnwrapContentKey(wrapped []byte, privateKey *rsa.PrivateKey) ([]byte, error) {
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, privateKey, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyUnwrapFailed, err)
	}
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, SymmetricKeySize, len(key))
	}
	return key, nil
}

// EncryptForUpload encrypts data and filename under a fresh content key and
// wraps that key for the owner.
func EncryptForUpload(data []byte, filename string, ownerPublicKey *rsa.PublicKey) (*FileEnvelope, error) {
	// 1. create sym key in memory
	contentKey, err := CreateSymmetricKey()
	if err != nil {
		return nil, err
	}
	defer zero(contentKey)

	// 2. encrypt content
	contentIV, err := randomBytes(ContentIVSize)
	if err != nil {
		return nil, err
	}
	ciphertext, err := seal(contentKey, contentIV, data)
	if err != nil {
		return nil, err
	}

	// 3. encrypt filename under a separate nonce
	filenameIV, err := randomBytes(ContentIVSize)
	if err != nil {
		return nil, err
	}
	encryptedName, err := seal(contentKey, filenameIV, []byte(filename))
	if err != nil {
		return nil, err
	}

	// 4. wrap sym key for the owner
	wrapped, err := WrapContentKey(contentKey, ownerPublicKey)
	if err != nil {
		return nil, err
	}

	return &FileEnvelope{
		Ciphertext:        ciphertext,
		ContentIV:         BytesToBase64(contentIV),
		WrappedKey:        BytesToBase64(wrapped),
		EncryptedFilename: ToURLSafe(BytesToBase64(encryptedName)),
		FilenameIV:        BytesToBase64(filenameIV),
	}, nil
}

// DecryptForDownload unwraps the content key and opens content and filename.
func DecryptForDownload(env *FileEnvelope, ownerPrivateKey *rsa.PrivateKey) (*DecryptedFile, error) {
	wrapped, err := Base64ToBytes(env.WrappedKey)
	if err != nil {
		return nil, err
	}
	contentKey, err := UnwrapContentKey(wrapped, ownerPrivateKey)
	if err != nil {
		return nil, err
	}
	defer zero(contentKey)

	return openEnvelope(contentKey, env.Ciphertext, env.ContentIV, env.EncryptedFilename, env.FilenameIV)
}

// DecryptFilename opens only the filename of an owner envelope, for listings.
func DecryptFilename(env *FileEnvelope, ownerPrivateKey *rsa.PrivateKey) (string, error) {
	wrapped, err := Base64ToBytes(env.WrappedKey)
	if err != nil {
		return "", err
	}
	contentKey, err := UnwrapContentKey(wrapped, ownerPrivateKey)
	if err != nil {
		return "", err
	}
	defer zero(contentKey)

	return openFilename(contentKey, env.EncryptedFilename, env.FilenameIV)
}

// EncryptForShare encrypts plaintext and filename under the unsalted
// passphrase-derived key, each with its own nonce.
func EncryptForShare(data []byte, filename, passphrase string) (*ShareEnvelope, error) {
	key, err := DeriveKeyFromPassphrase(passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	iv, err := randomBytes(ContentIVSize)
	if err != nil {
		return nil, err
	}
	ciphertext, err := seal(key, iv, data)
	if err != nil {
		return nil, err
	}

	filenameIV, err := randomBytes(ContentIVSize)
	if err != nil {
		return nil, err
	}
	encryptedName, err := seal(key, filenameIV, []byte(filename))
	if err != nil {
		return nil, err
	}

	return &ShareEnvelope{
		Ciphertext:        ciphertext,
		IV:                BytesToBase64(iv),
		EncryptedFilename: ToURLSafe(BytesToBase64(encryptedName)),
		FilenameIV:        BytesToBase64(filenameIV),
	}, nil
}

// DecryptShare re-derives the share key from passphrase and opens the envelope.
// A wrong passphrase surfaces as ErrDecryptFailed.
func DecryptShare(env *ShareEnvelope, passphrase string) (*DecryptedFile, error) {
	key, err := DeriveKeyFromPassphrase(passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	return openEnvelope(key, env.Ciphertext, env.IV, env.EncryptedFilename, env.FilenameIV)
}

func openEnvelope(key, ciphertext []byte, ivB64, encryptedName, filenameIVB64 string) (*DecryptedFile, error) {
	iv, err := Base64ToBytes(ivB64)
	if err != nil {
		return nil, err
	}
	data, err := open(key, iv, ciphertext)
	if err != nil {
		return nil, err
	}

	name, err := openFilename(key, encryptedName, filenameIVB64)
	if err != nil {
		return nil, err
	}

	return &DecryptedFile{Name: name, Data: data}, nil
}

func openFilename(key []byte, encryptedName, filenameIVB64 string) (string, error) {
	nameCiphertext, err := Base64ToBytes(FromURLSafe(encryptedName))
	if err != nil {
		return "", err
	}
	filenameIV, err := Base64ToBytes(filenameIVB64)
	if err != nil {
		return "", err
	}
	name, err := open(key, filenameIV, nameCiphertext)
	if err != nil {
		return "", err
	}
	return string(name), nil
}

// seal encrypts with AES-256-GCM using len(iv) as the nonce size.
func seal(key, iv, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key, len(iv))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrEncryptFailed, err)
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}

func open(key, iv, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key, len(iv))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrDecryptFailed, err)
	}
	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}
	return plaintext, nil
}

func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, SymmetricKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if nonceSize == 0 {
		return nil, fmt.Errorf("empty nonce")
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGeneration, err)
	}
	return b, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
