package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssue_UniqueAndHashed(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, hash, err := Issue()
		require.NoError(t, err)
		require.Len(t, raw, EntropyBytes*2)
		require.Len(t, hash, 64)
		require.NotEqual(t, raw, hash)
		require.Equal(t, Hash(raw), hash)
		require.False(t, seen[raw], "duplicate token")
		seen[raw] = true
	}
}

func TestHash_Deterministic(t *testing.T) {
	require.Equal(t, Hash("abc"), Hash("abc"))
	require.NotEqual(t, Hash("abc"), Hash("abd"))
}

func TestNewRef(t *testing.T) {
	ref, err := NewRef(8)
	require.NoError(t, err)
	require.Len(t, ref, 16)

	other, err := NewRef(8)
	require.NoError(t, err)
	require.NotEqual(t, ref, other)
}
