package secrets

import (
	"encoding/base64"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
)

// BytesToBase64 encodes b as standard padded base64.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBytes decodes standard padded base64.
func Base64ToBytes(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidEncoding, err)
	}
	return b, nil
}

// ToURLSafe converts standard base64 to its URL-safe, unpadded form so it can
// be embedded in a storage key or URL path.
func ToURLSafe(b64 string) string {
	r := strings.NewReplacer("+", "-", "/", "_")
	return strings.TrimRight(r.Replace(b64), "=")
}

// FromURLSafe reverses ToURLSafe, restoring padding to a multiple of 4.
func FromURLSafe(s string) string {
	r := strings.NewReplacer("-", "+", "_", "/")
	b64 := r.Replace(s)
	if pad := len(b64) % 4; pad != 0 {
		b64 += strings.Repeat("=", 4-pad)
	}
	return b64
}
