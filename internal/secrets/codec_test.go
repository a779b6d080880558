package secrets

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestBase64RoundTrip(t *testing.T) {
	for n := 0; n <= 64; n++ {
		b := make([]byte, n)
		_, err := rand.Read(b)
		require.NoError(t, err)

		got, err := Base64ToBytes(BytesToBase64(b))
		require.NoError(t, err)
		require.True(t, bytes.Equal(b, got), "length %d", n)
	}
}

func TestURLSafeRoundTrip(t *testing.T) {
	for n := 0; n <= 64; n++ {
		b := make([]byte, n)
		_, err := rand.Read(b)
		require.NoError(t, err)

		std := BytesToBase64(b)
		safe := ToURLSafe(std)
		require.False(t, strings.ContainsAny(safe, "+/="), "length %d produced %q", n, safe)
		require.Equal(t, std, FromURLSafe(safe), "length %d", n)
	}
}

func TestURLSafeKnownValues(t *testing.T) {
	// 0xfb 0xff encodes to "+/8=" in standard base64.
	std := BytesToBase64([]byte{0xfb, 0xff})
	require.Equal(t, "+/8=", std)
	require.Equal(t, "-_8", ToURLSafe(std))
	require.Equal(t, "+/8=", FromURLSafe("-_8"))
	require.Equal(t, "", FromURLSafe(""))
}

func TestBase64ToBytesInvalid(t *testing.T) {
	_, err := Base64ToBytes("***")
	require.ErrorIs(t, err, kerrors.ErrInvalidEncoding)
}
