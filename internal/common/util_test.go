package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	s, err := MakeRandHexString(32)
	require.NoError(t, err)
	require.Len(t, s, 64)

	_, err = hex.DecodeString(s)
	require.NoError(t, err, "must be valid hex")

	s2, err := MakeRandHexString(32)
	require.NoError(t, err)
	require.NotEqual(t, s, s2, "two tokens must not collide")
}

func TestWipeByteArray(t *testing.T) {
	b := []byte("sensitive")
	WipeByteArray(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not wiped", i)
		}
	}

	WipeByteArray(nil) // must not panic
}
