package primitives_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/primitives"
)

func TestNewHMACKeyProducesKeySizeBytes(t *testing.T) {
	key, err := primitives.NewHMACKey()
	require.NoError(t, err)
	require.Len(t, key, primitives.HMACKeySize)
}

func TestNewHMACKeyIsRandomized(t *testing.T) {
	a, err := primitives.NewHMACKey()
	require.NoError(t, err)
	b, err := primitives.NewHMACKey()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHMAC256IsDeterministicForSameKeyAndMessage(t *testing.T) {
	key := make([]byte, primitives.HMACKeySize)
	tag1, err := primitives.HMAC256(key, []byte("client hello"))
	require.NoError(t, err)
	tag2, err := primitives.HMAC256(key, []byte("client hello"))
	require.NoError(t, err)
	require.Equal(t, tag1, tag2)
}

func TestHMAC256DiffersForDifferentMessages(t *testing.T) {
	key := make([]byte, primitives.HMACKeySize)
	tag1, err := primitives.HMAC256(key, []byte("client hello"))
	require.NoError(t, err)
	tag2, err := primitives.HMAC256(key, []byte("server hello"))
	require.NoError(t, err)
	require.NotEqual(t, tag1, tag2)
}

func TestHMAC256RejectsEmptyKey(t *testing.T) {
	_, err := primitives.HMAC256(nil, []byte("msg"))
	require.Error(t, err)

	var fnErr *ferr.FnError
	require.ErrorAs(t, err, &fnErr)
	require.Equal(t, ferr.FnMalformed, fnErr.Variant)
}

func TestDeriveTranscriptKeyIsDeterministic(t *testing.T) {
	hash := []byte("transcript-digest-bytes")
	k1, err := primitives.DeriveTranscriptKey(hash, "symterm/transcript/v1")
	require.NoError(t, err)
	k2, err := primitives.DeriveTranscriptKey(hash, "symterm/transcript/v1")
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.Len(t, k1, primitives.HMACKeySize)
}

func TestDeriveTranscriptKeyDiffersByInfo(t *testing.T) {
	hash := []byte("transcript-digest-bytes")
	k1, err := primitives.DeriveTranscriptKey(hash, "context-a")
	require.NoError(t, err)
	k2, err := primitives.DeriveTranscriptKey(hash, "context-b")
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}

func TestDeriveTranscriptKeyRejectsEmptyHash(t *testing.T) {
	_, err := primitives.DeriveTranscriptKey(nil, "info")
	require.Error(t, err)
}
