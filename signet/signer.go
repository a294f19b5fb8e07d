package signet

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod returns the golang-jwt signing method for the credential's
// algorithm.
func (c *SigningCredential) SigningMethod() jwt.SigningMethod {
	return jwt.GetSigningMethod(c.alg)
}

// signingKey returns the private material in the form golang-jwt expects.
func (c *SigningCredential) signingKey() (any, error) {
	switch c.alg {
	case AlgRS256:
		priv, ok := c.key.signer.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: signer does not expose an RSA private key", ErrUnsupportedKey)
		}
		return priv, nil
	case AlgHS256:
		return c.key.secret, nil
	default:
		return nil, fmt.Errorf("%w: algorithm %s", ErrUnsupportedKey, c.alg)
	}
}

// verificationKey returns the public material used to verify signatures made
// with this credential.
func (c *SigningCredential) verificationKey() any {
	if c.alg == AlgHS256 {
		return c.key.secret
	}
	return c.key.signer.Public()
}

// SignerFor returns the first credential, in insertion order, eligible to
// sign with alg. This is the preference convention the external token issuer
// follows.
func (s *CredentialSet) SignerFor(alg string) (*SigningCredential, bool) {
	for _, cred := range s.creds {
		if cred.alg == alg {
			return cred, true
		}
	}
	return nil, false
}

// Sign issues a signed token for claims with the first credential eligible
// for alg. The credential's key identifier is published in the "kid" header
// so verifiers can select the matching public key.
func (s *CredentialSet) Sign(alg string, claims jwt.Claims) (string, error) {
	cred, ok := s.SignerFor(alg)
	if !ok {
		return "", fmt.Errorf("%w: no credential for %s", ErrUnsupportedKey, alg)
	}
	token := jwt.NewWithClaims(cred.SigningMethod(), claims)
	if cred.KeyID() != "" {
		token.Header["kid"] = cred.KeyID()
	}
	key, err := cred.signingKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(key)
}

// Keyfunc selects the verification key for a parsed token, matching on the
// "kid" header when present and falling back to the first credential for the
// token's algorithm otherwise. Pass it to jwt.Parse.
func (s *CredentialSet) Keyfunc(token *jwt.Token) (any, error) {
	alg := token.Method.Alg()
	if kid, ok := token.Header["kid"].(string); ok && kid != "" {
		for _, cred := range s.creds {
			if cred.KeyID() == kid && cred.alg == alg {
				return cred.verificationKey(), nil
			}
		}
		return nil, fmt.Errorf("%w: kid %s", ErrCertificateNotFound, kid)
	}
	if cred, ok := s.SignerFor(alg); ok {
		return cred.verificationKey(), nil
	}
	return nil, fmt.Errorf("%w: no credential for %s", ErrUnsupportedKey, alg)
}
