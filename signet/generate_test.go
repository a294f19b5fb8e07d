package signet

import (
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEphemeral(t *testing.T) {
	key, err := GenerateEphemeral()
	require.NoError(t, err)

	assert.Equal(t, KindAsymmetric, key.Kind())
	assert.GreaterOrEqual(t, key.Size(), MinRSAKeySize)
	_, ok := key.Signer().(*rsa.PrivateKey)
	assert.True(t, ok)
}

func TestGenerateEphemeralKeysAreDistinct(t *testing.T) {
	first, err := GenerateEphemeral()
	require.NoError(t, err)
	second, err := GenerateEphemeral()
	require.NoError(t, err)

	set := mustNewSet(t)
	credFirst, err := set.Add(first)
	require.NoError(t, err)
	credSecond, err := set.Add(second)
	require.NoError(t, err)

	assert.NotEqual(t, credFirst.KeyID(), credSecond.KeyID())
}
