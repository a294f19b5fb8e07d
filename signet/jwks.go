package signet

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// PublicJWKS builds the JWK set advertising the public half of every
// asymmetric and certificate-bound credential, in insertion order. Symmetric
// credentials are omitted: publishing a shared secret would disclose it.
func (s *CredentialSet) PublicJWKS() (jwk.Set, error) {
	set := jwk.NewSet()
	for _, cred := range s.creds {
		if cred.key.kind == KindSymmetric {
			continue
		}
		pub, err := jwk.FromRaw(cred.key.signer.Public())
		if err != nil {
			return nil, fmt.Errorf("build jwk for %s: %w", cred.KeyID(), err)
		}
		if err := pub.Set(jwk.KeyIDKey, cred.KeyID()); err != nil {
			return nil, err
		}
		if err := pub.Set(jwk.AlgorithmKey, jwa.KeyAlgorithmFrom(cred.alg)); err != nil {
			return nil, err
		}
		if err := pub.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
			return nil, err
		}
		if err := set.AddKey(pub); err != nil {
			return nil, fmt.Errorf("add jwk for %s: %w", cred.KeyID(), err)
		}
	}
	return set, nil
}
