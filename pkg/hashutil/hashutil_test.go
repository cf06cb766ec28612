package hashutil_test

import (
	"encoding/hex"
	"testing"

	"github.com/rohmanhakim/newsletter-triage/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestHashBytes_SHA256(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "simple string",
			data:     []byte("hello world"),
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := hashutil.HashBytes(tt.data, hashutil.HashAlgoSHA256)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHashBytes_BLAKE3(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")

	result, err := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)

	expected := blake3.Sum256(data)
	assert.Equal(t, hex.EncodeToString(expected[:]), result)
	assert.Len(t, result, 64)
}

func TestHashBytes_UnsupportedAlgo(t *testing.T) {
	_, err := hashutil.HashBytes([]byte("x"), hashutil.HashAlgo("md5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "md5")
}

func TestStableID(t *testing.T) {
	a := hashutil.StableID("user-1", "<msg@example.com>", "https://example.com/a")
	b := hashutil.StableID("user-1", "<msg@example.com>", "https://example.com/a")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	assert.NotEqual(t, hashutil.StableID("ab", "c"), hashutil.StableID("a", "bc"))
	assert.NotEqual(t, a, hashutil.StableID("user-2", "<msg@example.com>", "https://example.com/a"))
}

func TestShortHash(t *testing.T) {
	data := []byte("issue body")
	full, err := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)

	assert.Equal(t, full[:12], hashutil.ShortHash(data, 12))
	assert.Len(t, hashutil.ShortHash(data, 0), 1)
	assert.Equal(t, full, hashutil.ShortHash(data, 100))
}
