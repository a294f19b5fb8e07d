package signet

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// MinRSAKeySize is the minimum modulus length, in bits, accepted for
// ephemeral signing keys.
const MinRSAKeySize = 2048

// maxGenerateAttempts bounds regeneration when the primitive yields an
// undersized key.
const maxGenerateAttempts = 3

// GenerateEphemeral creates a fresh RSA key pair of at least MinRSAKeySize
// bits. The resulting key size is validated after generation and the key is
// regenerated until the minimum is met; if no attempt succeeds the call fails
// with ErrWeakKeyGenerated.
//
// The key exists only in process memory and is never persisted: every token
// signed with it becomes unverifiable after a restart. Use this mode for
// development and testing only, never for production deployments spanning
// multiple processes or restarts.
func GenerateEphemeral() (*SigningKey, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		priv, err := rsa.GenerateKey(rand.Reader, MinRSAKeySize)
		if err != nil {
			return nil, fmt.Errorf("generate rsa key: %w", err)
		}
		if priv.N.BitLen() < MinRSAKeySize {
			continue
		}
		return NewAsymmetricKey(priv)
	}
	return nil, fmt.Errorf("%w: could not reach %d bits in %d attempts",
		ErrWeakKeyGenerated, MinRSAKeySize, maxGenerateAttempts)
}
